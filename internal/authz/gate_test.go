package authz

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/admingate/internal/models"
)

type recordingHandler struct {
	calls atomic.Int32
	lastW http.ResponseWriter
	lastR *http.Request
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	h.lastW = w
	h.lastR = r
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("X-Downstream", "yes")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("downstream body"))
}

func roleOf(s string) *models.UserRole {
	r := models.UserRole(s)
	return &r
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name      string
		principal *models.Principal
		want      Decision
	}{
		{"no principal", nil, Deny},
		{"no role", &models.Principal{UserID: "u1"}, Deny},
		{"user role", &models.Principal{UserID: "u1", Role: roleOf("user")}, Deny},
		{"empty role", &models.Principal{UserID: "u1", Role: roleOf("")}, Deny},
		{"capitalised", &models.Principal{UserID: "u1", Role: roleOf("Admin")}, Deny},
		{"upper case", &models.Principal{UserID: "u1", Role: roleOf("ADMIN")}, Deny},
		{"padded", &models.Principal{UserID: "u1", Role: roleOf(" admin")}, Deny},
		{"prefix match", &models.Principal{UserID: "u1", Role: roleOf("administrator")}, Deny},
		{"admin", &models.Principal{UserID: "u1", Role: roleOf("admin")}, Allow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.principal))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}

func TestEvaluateDenies(t *testing.T) {
	principals := map[string]*models.Principal{
		"absent":     nil,
		"role unset": {UserID: "u1"},
		"user":       models.NewPrincipal("u1", "u1@example.com", models.RoleUser),
		"Admin":      {UserID: "u1", Role: roleOf("Admin")},
	}
	for name, p := range principals {
		t.Run(name, func(t *testing.T) {
			next := &recordingHandler{}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)

			Evaluate(p, next).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Empty(t, rr.Header().Get("X-Downstream"))
			assert.Zero(t, next.calls.Load(), "continuation must not run on deny")
		})
	}
}

func TestDeniedBodyIsExact(t *testing.T) {
	rr := httptest.NewRecorder()
	Evaluate(nil, &recordingHandler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	want := "{\"message\":\"Acesso não autorizado. Apenas administradores podem acessar esta rota.\"}"
	assert.Equal(t, want, rr.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body, 1)
	assert.Equal(t, "Acesso não autorizado. Apenas administradores podem acessar esta rota.", body["message"])
}

func TestEvaluateAllowsAdmin(t *testing.T) {
	next := &recordingHandler{}
	p := models.NewPrincipal("u1", "root@example.com", models.RoleAdmin)

	got := Evaluate(p, next)
	assert.Same(t, next, got, "admin must receive the continuation itself")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", nil)
	got.ServeHTTP(rr, req)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Same(t, req, next.lastR)
	assert.Same(t, rr, next.lastW)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "yes", rr.Header().Get("X-Downstream"))
	assert.Equal(t, "downstream body", rr.Body.String())
}

func TestEvaluateIsDeterministic(t *testing.T) {
	admin := models.NewPrincipal("a", "", models.RoleAdmin)
	user := models.NewPrincipal("b", "", models.RoleUser)
	for i := 0; i < 50; i++ {
		assert.Equal(t, Allow, Decide(admin))
		assert.Equal(t, Deny, Decide(user))
	}
	assert.Equal(t, models.RoleAdmin, *admin.Role)
	assert.Equal(t, models.RoleUser, *user.Role)
}

func TestAdminOnlyReadsPrincipalFromContext(t *testing.T) {
	t.Run("missing principal", func(t *testing.T) {
		next := &recordingHandler{}
		rr := httptest.NewRecorder()
		AdminOnly(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Zero(t, next.calls.Load())
	})

	t.Run("admin principal", func(t *testing.T) {
		next := &recordingHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), models.NewPrincipal("u1", "", models.RoleAdmin)))
		rr := httptest.NewRecorder()

		AdminOnly(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, int32(1), next.calls.Load())
		assert.Same(t, req, next.lastR)
	})

	t.Run("typed nil principal", func(t *testing.T) {
		next := &recordingHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), nil))
		rr := httptest.NewRecorder()

		AdminOnly(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Zero(t, next.calls.Load())
	})
}

func TestAdminOnlyConcurrentPrincipals(t *testing.T) {
	const n = 200

	var allowed atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed.Add(1)
		p, _ := PrincipalFromRequest(r)
		w.Header().Set("X-User", p.UserID)
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminOnly(next)

	codes := make([]int, n)
	users := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := models.RoleUser
			if i%2 == 0 {
				role = models.RoleAdmin
			}
			id := fmt.Sprintf("user-%d", i)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithPrincipal(req.Context(), models.NewPrincipal(id, "", role)))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			codes[i] = rr.Code
			users[i] = rr.Header().Get("X-User")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if i%2 == 0 {
			assert.Equal(t, http.StatusOK, codes[i], "principal %d", i)
			assert.Equal(t, fmt.Sprintf("user-%d", i), users[i])
		} else {
			assert.Equal(t, http.StatusForbidden, codes[i], "principal %d", i)
			assert.Empty(t, users[i])
		}
	}
	assert.Equal(t, int32(n/2), allowed.Load())
}
