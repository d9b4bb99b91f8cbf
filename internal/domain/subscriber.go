package domain

import "time"

type Subscriber struct {
	Email            string
	SubscriptionDate time.Time
}
