package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/admingate/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

func PrincipalFromRequest(r *http.Request) (*models.Principal, bool) {
	return PrincipalFromContext(r.Context())
}
