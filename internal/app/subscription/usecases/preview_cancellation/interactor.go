package preview_cancellation

import (
	"context"
	"log"
	"time"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// Interactor computes what a cancellation would refund, without side effects.
// The portal shows this to the customer before they confirm.
type Interactor struct {
	repo     contracts.SubscriptionRepository
	policies contracts.PolicyCatalog
	clock    domain.Clock
}

// NewInteractor creates a new cancellation preview interactor
func NewInteractor(repo contracts.SubscriptionRepository, policies contracts.PolicyCatalog, clock domain.Clock) *Interactor {
	return &Interactor{
		repo:     repo,
		policies: policies,
		clock:    clock,
	}
}

// Execute returns the refund a cancellation at asOf (or now) would produce.
// For an already-cancelled subscription the stored refund info is returned.
func (i *Interactor) Execute(ctx context.Context, subscriptionID string, asOf *time.Time) (*domain.RefundInfo, error) {
	sub, err := i.repo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if sub.Status() == domain.StatusCancelled {
		return sub.RefundInfo(), nil
	}

	at := i.clock.Now()
	if asOf != nil {
		at = *asOf
	}

	policies, err := i.policies.ListActive(ctx)
	if err != nil {
		// Same degrade as the cancellation path: a catalog outage means a
		// 0% preview, not a failed request.
		log.Printf("refund policy lookup failed during preview: %v", err)
		policies = nil
	}

	info := domain.ComputeRefund(sub, policies, at, "")
	return &info, nil
}
