package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContext is the authenticated session principal
type UserContext struct {
	UserID string
	Email  string
	Name   string
}

// SetUserInContext stores the principal in the request context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext retrieves the principal from the request context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return user, nil
}
