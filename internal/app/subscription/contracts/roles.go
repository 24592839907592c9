package contracts

import "context"

// RoleDirectory looks up and assigns user roles. Only the approval side
// effect uses it; grant failures are best-effort and never roll anything back.
type RoleDirectory interface {
	DefaultSubscriberRole(ctx context.Context) (string, error)
	GrantRole(ctx context.Context, userID, roleID string) error
}
