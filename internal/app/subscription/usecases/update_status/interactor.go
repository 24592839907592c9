package update_status

import (
	"context"
	"fmt"
	"log"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
	"github.com/mealtrail/subscription-service/internal/app/subscription/domain"
)

// Request contains the input for a status transition
type Request struct {
	SubscriptionID string
	Status         string
	Note           string
	ReviewedBy     string
}

// Interactor coordinates subscription status transitions. Cancellation runs
// the wallet-first saga: the refund is credited before the document write,
// and a failed write triggers a compensating debit. The two stores share no
// transaction, so this ordering is what keeps a cancelled document from ever
// existing without its coin movement.
type Interactor struct {
	repo     contracts.SubscriptionRepository
	wallet   contracts.WalletLedger
	policies contracts.PolicyCatalog
	roles    contracts.RoleDirectory
	clock    domain.Clock
}

// NewInteractor creates a new status update interactor
func NewInteractor(repo contracts.SubscriptionRepository, wallet contracts.WalletLedger, policies contracts.PolicyCatalog, roles contracts.RoleDirectory, clock domain.Clock) *Interactor {
	return &Interactor{
		repo:     repo,
		wallet:   wallet,
		policies: policies,
		roles:    roles,
		clock:    clock,
	}
}

// Execute applies a status transition to a subscription request. Unknown
// status strings coerce to pending.
func (i *Interactor) Execute(ctx context.Context, req Request) (*domain.SubscriptionRequest, error) {
	sub, err := i.repo.FindByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	switch domain.ParseStatus(req.Status) {
	case domain.StatusApproved:
		return i.approve(ctx, sub, req)
	case domain.StatusRejected:
		return i.reject(ctx, sub, req)
	case domain.StatusCancelled:
		return i.cancel(ctx, sub, req)
	default:
		// pending (possibly coerced from a malformed value): nothing to
		// transition to.
		if sub.Status() == domain.StatusPending {
			return sub, nil
		}
		return nil, domain.ErrInvalidTransition
	}
}

func (i *Interactor) approve(ctx context.Context, sub *domain.SubscriptionRequest, req Request) (*domain.SubscriptionRequest, error) {
	prev := sub.Status()
	event, err := sub.Approve(req.ReviewedBy, req.Note, i.clock)
	if err != nil {
		return nil, err
	}

	if err := i.repo.UpdateStatusIf(ctx, sub, prev); err != nil {
		return nil, err
	}

	// Best-effort: grant the subscriber role after the approval is committed.
	// Failures are logged and never surfaced; role assignment must not be
	// confused with the financial state machine.
	i.grantSubscriberRole(ctx, event.CustomerID)

	return sub, nil
}

func (i *Interactor) reject(ctx context.Context, sub *domain.SubscriptionRequest, req Request) (*domain.SubscriptionRequest, error) {
	prev := sub.Status()
	if _, err := sub.Reject(req.ReviewedBy, req.Note, i.clock); err != nil {
		return nil, err
	}
	if err := i.repo.UpdateStatusIf(ctx, sub, prev); err != nil {
		return nil, err
	}
	return sub, nil
}

func (i *Interactor) cancel(ctx context.Context, sub *domain.SubscriptionRequest, req Request) (*domain.SubscriptionRequest, error) {
	// Cancelling an already-cancelled subscription is an idempotent read:
	// the stored refund info is returned unchanged and no wallet call is made.
	if sub.Status() == domain.StatusCancelled {
		return sub, nil
	}

	info := domain.ComputeRefund(sub, i.listPolicies(ctx), i.clock.Now(), req.ReviewedBy)

	prev := sub.Status()
	event, err := sub.Cancel(info, req.ReviewedBy, req.Note, i.clock)
	if err != nil {
		return nil, err
	}

	// Credit the wallet before writing the document. If the credit fails the
	// operation aborts here and no partial state exists.
	credited := false
	if info.Amount > 0 && info.Source == domain.RefundSourceCoins {
		if err := i.wallet.Adjust(ctx, sub.CustomerID(), info.Amount); err != nil {
			return nil, fmt.Errorf("crediting cancellation refund: %w", err)
		}
		credited = true
	}

	if err := i.repo.UpdateStatusIf(ctx, sub, prev); err != nil {
		if credited {
			if compErr := i.wallet.Adjust(ctx, sub.CustomerID(), -info.Amount); compErr != nil {
				// The wallet now holds coins the document does not reflect.
				// Nothing more can be done inline; this log line is what
				// operations alerts on.
				log.Printf("ERROR: refund compensation failed for subscription %s customer %s amount %.2f: %v",
					sub.ID(), sub.CustomerID(), info.Amount, compErr)
			}
		}
		return nil, err
	}

	log.Printf("subscription %s cancelled: refunded %.2f %s to customer %s",
		event.SubscriptionID, event.RefundAmount, info.Currency, event.CustomerID)
	return sub, nil
}

// listPolicies fetches the active refund policies, degrading to "no policy"
// on catalog failure. A policy outage must not block a cancellation; the
// customer gets a 0% refund rather than the cancellation failing outright.
func (i *Interactor) listPolicies(ctx context.Context) []domain.RefundPolicy {
	policies, err := i.policies.ListActive(ctx)
	if err != nil {
		log.Printf("refund policy lookup failed, proceeding without policy: %v", err)
		return nil
	}
	return policies
}

func (i *Interactor) grantSubscriberRole(ctx context.Context, customerID string) {
	if i.roles == nil {
		return
	}
	roleID, err := i.roles.DefaultSubscriberRole(ctx)
	if err != nil {
		log.Printf("subscriber role lookup failed for customer %s: %v", customerID, err)
		return
	}
	if err := i.roles.GrantRole(ctx, customerID, roleID); err != nil {
		log.Printf("granting subscriber role to customer %s failed: %v", customerID, err)
	}
}
