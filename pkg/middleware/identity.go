package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/models"
)

const (
	AccountIDHeader   = "X-Account-Id"
	AccountRoleHeader = "X-Account-Role"
)

// Identity is the caller as asserted by the upstream gateway.
type Identity struct {
	AccountID string
	Role      models.Role
}

type identityKey struct{}

// Identify copies the identity headers into the request context. Requests
// without them pass through; handlers that need a caller reject them.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(AccountIDHeader))
		role := models.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(AccountRoleHeader))))
		if id != "" && role.Valid() {
			r = r.WithContext(WithIdentity(r.Context(), Identity{AccountID: id, Role: role}))
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller identity or ErrUnauthenticated.
func IdentityFrom(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing %s or %s header", apperrors.ErrUnauthenticated, AccountIDHeader, AccountRoleHeader)
	}
	return id, nil
}

// RequireRole returns ErrForbidden unless the caller holds one of roles.
func (i Identity) RequireRole(roles ...models.Role) error {
	for _, r := range roles {
		if i.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not perform this action", apperrors.ErrForbidden, i.Role)
}
