package adapters

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
)

var _ contracts.RoleDirectory = (*FirebaseRoleDirectory)(nil)

// ErrNoSubscriberRole indicates the subscriber role id is not configured.
var ErrNoSubscriberRole = errors.New("subscriber role id not configured")

// FirebaseRoleDirectory assigns roles through Firebase Auth custom claims.
// Roles live in the "roles" claim as a list of role ids.
type FirebaseRoleDirectory struct {
	client           *auth.Client
	subscriberRoleID string
}

// NewFirebaseRoleDirectory creates a role directory over a Firebase auth client
func NewFirebaseRoleDirectory(client *auth.Client, subscriberRoleID string) *FirebaseRoleDirectory {
	return &FirebaseRoleDirectory{client: client, subscriberRoleID: subscriberRoleID}
}

// DefaultSubscriberRole returns the configured subscriber role id.
func (d *FirebaseRoleDirectory) DefaultSubscriberRole(ctx context.Context) (string, error) {
	if d.subscriberRoleID == "" {
		return "", ErrNoSubscriberRole
	}
	return d.subscriberRoleID, nil
}

// GrantRole adds a role to the user's custom claims if not already present.
func (d *FirebaseRoleDirectory) GrantRole(ctx context.Context, userID, roleID string) error {
	user, err := d.client.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	claims := user.CustomClaims
	if claims == nil {
		claims = map[string]interface{}{}
	}

	var roles []interface{}
	if existing, ok := claims["roles"].([]interface{}); ok {
		for _, r := range existing {
			if s, ok := r.(string); ok && s == roleID {
				return nil // already granted
			}
		}
		roles = existing
	}
	roles = append(roles, roleID)
	claims["roles"] = roles

	return d.client.SetCustomUserClaims(ctx, userID, claims)
}
