package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type subscriberDocument struct {
	Email            string    `bson:"email"`
	SubscriptionDate time.Time `bson:"subscriptionDate"`
}

type subscriberRepository struct {
	collection *mongo.Collection
}

func NewSubscriberRepository(db *mongo.Database) SubscriberRepository {
	return &subscriberRepository{
		collection: db.Collection("emails"),
	}
}

func (r *subscriberRepository) Exists(ctx context.Context, email string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up subscriber: %w", err)
	}
	return true, nil
}

// Insert relies on the unique email index to catch concurrent duplicates.
func (r *subscriberRepository) Insert(ctx context.Context, sub domain.Subscriber) error {
	_, err := r.collection.InsertOne(ctx, subscriberDocument{
		Email:            sub.Email,
		SubscriptionDate: sub.SubscriptionDate,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}
	return nil
}
