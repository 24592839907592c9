package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.PolicyCatalog = (*PolicyRepo)(nil)

// PolicyRepo reads the refund policy catalog from Cloud Spanner. The catalog
// is written by the admin CRUD surface; this subsystem only lists it.
type PolicyRepo struct {
	client *spanner.Client
}

// NewPolicyRepo creates a new policy catalog reader
func NewPolicyRepo(client *spanner.Client) *PolicyRepo {
	return &PolicyRepo{client: client}
}

// ListActive returns all active refund policies with their tiers.
func (r *PolicyRepo) ListActive(ctx context.Context) ([]domain.RefundPolicy, error) {
	stmt := spanner.Statement{
		SQL: `
			SELECT id, name, subscription_length_days, category_ids, product_ids, tiers
			FROM refund_policies
			WHERE active = TRUE
		`,
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var policies []domain.RefundPolicy
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var (
			id          string
			name        spanner.NullString
			lengthDays  int64
			categoryIDs spanner.NullJSON
			productIDs  spanner.NullJSON
			tiersCol    spanner.NullJSON
		)
		if err := row.Columns(&id, &name, &lengthDays, &categoryIDs, &productIDs, &tiersCol); err != nil {
			return nil, err
		}

		policy := domain.RefundPolicy{
			ID:                     id,
			Name:                   name.StringVal,
			SubscriptionLengthDays: lengthDays,
			Active:                 true,
		}
		if err := fromJSON(categoryIDs, &policy.CategoryIDs); err != nil {
			return nil, fmt.Errorf("decoding category ids for policy %s: %w", id, err)
		}
		if err := fromJSON(productIDs, &policy.ProductIDs); err != nil {
			return nil, fmt.Errorf("decoding product ids for policy %s: %w", id, err)
		}
		if err := fromJSON(tiersCol, &policy.Tiers); err != nil {
			return nil, fmt.Errorf("decoding tiers for policy %s: %w", id, err)
		}

		policies = append(policies, policy)
	}

	return policies, nil
}
