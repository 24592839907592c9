package update_subscription

import (
	"context"
	"fmt"
	"log"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// Request contains a partial update of a subscription request
type Request struct {
	SubscriptionID string
	Fields         domain.UpdateFields
}

// Interactor handles in-place subscription updates. When the partial touches
// pausedMeals it runs the same wallet-first saga as cancellation: the net
// coin delta for newly paused or un-paused meals is applied before the
// document write, with a compensating adjustment if the write fails.
type Interactor struct {
	repo   contracts.SubscriptionRepository
	wallet contracts.WalletLedger
	clock  domain.Clock
}

// NewInteractor creates a new subscription update interactor
func NewInteractor(repo contracts.SubscriptionRepository, wallet contracts.WalletLedger, clock domain.Clock) *Interactor {
	return &Interactor{
		repo:   repo,
		wallet: wallet,
		clock:  clock,
	}
}

// Execute applies a partial update to a subscription request.
func (i *Interactor) Execute(ctx context.Context, req Request) (*domain.SubscriptionRequest, error) {
	sub, err := i.repo.FindByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var delta float64
	if req.Fields.PausedMeals != nil {
		incoming := domain.DedupePausedMeals(*req.Fields.PausedMeals)
		req.Fields.PausedMeals = &incoming
		delta = domain.ReconcilePausedMeals(sub.PausedMeals(), incoming, sub)
	}

	if err := sub.ApplyUpdate(req.Fields); err != nil {
		return nil, err
	}

	mutation, err := i.repo.PartialUpdate(sub.ID(), req.Fields)
	if err != nil {
		return nil, err
	}

	// A zero delta issues no wallet call at all.
	if delta != 0 {
		if err := i.wallet.Adjust(ctx, sub.CustomerID(), delta); err != nil {
			return nil, fmt.Errorf("adjusting wallet for paused meals: %w", err)
		}
	}

	if err := i.repo.Apply(ctx, mutation); err != nil {
		if delta != 0 {
			if compErr := i.wallet.Adjust(ctx, sub.CustomerID(), -delta); compErr != nil {
				log.Printf("ERROR: paused-meal compensation failed for subscription %s customer %s delta %.2f: %v",
					sub.ID(), sub.CustomerID(), delta, compErr)
			}
		}
		return nil, err
	}

	return sub, nil
}
