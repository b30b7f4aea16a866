package auth

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID   uint
	Username string
	Role     domain.Role
	// Service is set for bot requests authenticated by API key
	Service bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// ID returns the user id as a weak domain reference
func (u *UserContext) ID() domain.UserID {
	return domain.UserID(u.UserID)
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// CanActFor reports whether u may read or write data belonging to userID.
// Admins and managers may act for anyone.
func (u *UserContext) CanActFor(userID uint) bool {
	return u.UserID == userID || u.HasAnyRole(domain.RoleAdmin, domain.RoleManager)
}
