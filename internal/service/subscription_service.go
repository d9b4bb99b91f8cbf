package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

type SubscriptionService struct {
	repo repository.SubscriberRepository
	now  func() time.Time
	log  *slog.Logger
}

func NewSubscriptionService(repo repository.SubscriberRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		now:  time.Now,
		log:  log,
	}
}

// Subscribe registers email for the newsletter. Addresses are stored trimmed
// and lower-cased, so duplicates are detected case-insensitively.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	exists, err := s.repo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	sub := domain.Subscriber{Email: email, SubscriptionDate: s.now().UTC()}
	if err := s.repo.Insert(ctx, sub); err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.log.InfoContext(ctx, "subscriber added")
	return &sub, nil
}
