package authz

import (
	"net/http"

	"github.com/stanstork/admingate/internal/models"
)

// DeniedMessage is returned to clients that are not administrators.
const DeniedMessage = "Acesso não autorizado. Apenas administradores podem acessar esta rota."

var deniedBody = []byte(`{"message":"` + DeniedMessage + `"}`)

// Decision is the outcome of the admin check for one request.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Decide allows only a principal whose role is exactly "admin".
// A missing principal or a missing role is denied.
func Decide(p *models.Principal) Decision {
	if p == nil || p.Role == nil || *p.Role != models.RoleAdmin {
		return Deny
	}
	return Allow
}

// Evaluate returns next untouched when p is an administrator, otherwise a
// handler that writes the 403 denial.
func Evaluate(p *models.Principal, next http.Handler) http.Handler {
	if Decide(p) == Allow {
		return next
	}
	return deniedHandler
}

var deniedHandler = http.HandlerFunc(writeDenied)

func writeDenied(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write(deniedBody)
}

// AdminOnly gates next on the principal resolved by the authentication
// middleware earlier in the chain.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromRequest(r)
		Evaluate(p, next).ServeHTTP(w, r)
	})
}
