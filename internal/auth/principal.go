package auth

import (
	"context"

	"github.com/gdg-garage/badminton-api/internal/apperr"
	"github.com/gdg-garage/badminton-api/internal/models"
)

// Principal is the authenticated caller. The middleware only resolves it;
// deciding what the caller may do is left to each operation.
type Principal struct {
	ID    string
	Email string
	Role  models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.ID != ""
}

// RequirePrincipal fails with Unauthenticated for anonymous requests.
func RequirePrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return Principal{}, apperr.New(apperr.Unauthenticated, "Authentication required")
	}
	return p, nil
}

func PrincipalOf(user *models.User) Principal {
	return Principal{ID: user.ID, Email: user.Email, Role: user.Role}
}
