package create_subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// Request contains the checkout input for creating a subscription request
type Request struct {
	CustomerID     string
	CategoryID     string
	DietPreference string
	DurationDays   int64
	StartDate      time.Time
	Selections     []domain.Selection
	Summary        domain.Summary
}

// Interactor handles the create subscription use case
type Interactor struct {
	repo  contracts.SubscriptionRepository
	clock domain.Clock
}

// NewInteractor creates a new create subscription interactor
func NewInteractor(repo contracts.SubscriptionRepository, clock domain.Clock) *Interactor {
	return &Interactor{
		repo:  repo,
		clock: clock,
	}
}

// Execute creates a new subscription request. Requests always enter the
// system pending; staff approval is a separate operation.
func (i *Interactor) Execute(ctx context.Context, req Request) (*domain.SubscriptionRequest, *domain.SubscriptionCreatedEvent, error) {
	// 1. Create domain aggregate
	id := uuid.New().String()
	sub, event, err := domain.NewSubscriptionRequest(id, req.CustomerID, req.CategoryID, req.DietPreference, req.DurationDays, req.StartDate, req.Selections, req.Summary, i.clock)
	if err != nil {
		return nil, nil, err
	}

	// 2. Get mutation for saving the request
	mutation, err := i.repo.Insert(ctx, sub)
	if err != nil {
		return nil, nil, err
	}

	// 3. Apply the mutation
	if err := i.repo.Apply(ctx, mutation); err != nil {
		return nil, nil, err
	}

	return sub, event, nil
}
