// Package gate is a small permission-based authorization layer.
// A Gate resolves the subject's profile through a ProfileResolver and checks
// whether one of its permissions covers the requested "resource:action".
// The package has no dependency on domain models.
package gate

import (
	"context"
	"fmt"
)

// Gate is the central authorization checkpoint.
// U is the subject type; its zero value means "anonymous".
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate backed by the given resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil when user holds a permission matching perm.
// ErrUnauthorized is returned for the anonymous subject and ErrForbidden
// when the profile is missing or lacks the permission. Resolver failures are
// wrapped.
func (g *Gate[U]) Authorize(ctx context.Context, user U, perm Permission) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}
	if profile == nil || !profile.HasPermission(perm) {
		return ErrForbidden
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, NewPermission(resourceType, action)) == nil
}

// HasCodename checks a permission given in "<action>_<resource>" form.
func (g *Gate[U]) HasCodename(ctx context.Context, user U, codename string) bool {
	perm := FromCodename(codename)
	if perm == "" {
		return false
	}
	return g.Authorize(ctx, user, perm) == nil
}
