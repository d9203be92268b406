// Package policy wires the gate to the user store and to HTTP.
package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/view"
	"gorm.io/gorm"
)

// AuthGate is the central authorization point of the application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a gate resolving profiles from db, cached for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the permission of the user attached to ctx.
// Returns gate.ErrUnauthorized when nobody is logged in.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, gate.NewPermission(resourceType, action))
}

// Can is Authorize returning a bool.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType) == nil
}

// CanUser checks the permission of an arbitrary user, e.g. to fill an edit form.
func (ag *AuthGate) CanUser(ctx context.Context, userID uint, action gate.Action, resourceType string) bool {
	return ag.Gate.Can(ctx, userID, action, resourceType)
}

// IsAdmin reports whether the current user holds the wildcard permission.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && profile != nil && profile.HasPermission(gate.PermissionSuperAdmin)
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's group or permissions change.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that sends anonymous users to the
// login page and answers 403 when the permission is missing.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		check := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.Can(r.Context(), action, resourceType) {
				view.Error(w, r, http.StatusForbidden, "error.forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
		return auth.RequireAuth(check)
	}
}
