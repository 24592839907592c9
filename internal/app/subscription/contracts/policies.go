package contracts

import (
	"context"

	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// PolicyCatalog reads the refund policy catalog. The catalog is owned by a
// separate admin CRUD surface and is read-only from this subsystem.
type PolicyCatalog interface {
	ListActive(ctx context.Context) ([]domain.RefundPolicy, error)
}
