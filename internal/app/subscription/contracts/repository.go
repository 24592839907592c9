package contracts

import (
	"context"

	"cloud.google.com/go/spanner"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// SubscriptionRepository defines the interface for subscription persistence.
// Insert and PartialUpdate return single-row mutations that must be applied
// with Apply; UpdateStatusIf runs a conditional write that only succeeds when
// the row's status is still what the caller previously read.
type SubscriptionRepository interface {
	Insert(ctx context.Context, sub *domain.SubscriptionRequest) (*spanner.Mutation, error)
	PartialUpdate(id string, fields domain.UpdateFields) (*spanner.Mutation, error)
	Apply(ctx context.Context, mutations ...*spanner.Mutation) error
	FindByID(ctx context.Context, id string) (*domain.SubscriptionRequest, error)
	UpdateStatusIf(ctx context.Context, sub *domain.SubscriptionRequest, expected domain.Status) error
}
