package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/missaoglobal/outreach/internal/auth"
)

func TestAuthInjetaClaimsNoContexto(t *testing.T) {
	mgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	token, _, err := mgr.GenerateAccessToken("user-1", "outreach-app", []string{"lider"})
	if err != nil {
		t.Fatalf("emitir token: %v", err)
	}

	var subject, audience string
	var roles []string
	handler := Auth(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		audience = GetAudience(r.Context())
		roles = GetRoles(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if subject != "user-1" {
		t.Fatalf("subject: esperava user-1, veio %q", subject)
	}
	if audience != "outreach-app" {
		t.Fatalf("audience: esperava outreach-app, veio %q", audience)
	}
	if !reflect.DeepEqual(roles, []string{"lider"}) {
		t.Fatalf("roles: veio %v", roles)
	}
}

func TestAuthSemToken(t *testing.T) {
	mgr := auth.NewJWTManager("segredo-de-teste", time.Minute)
	handler := Auth(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria rodar sem token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
