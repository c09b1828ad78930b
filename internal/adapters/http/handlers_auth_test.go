package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"facultyhub/internal/adapters/http/middleware"
	auditStore "facultyhub/internal/adapters/storage/audit"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/audit"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "facultyhub_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHandleLogin_FacultyEmail(t *testing.T) {
	setupTest(t)
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", url.Values{"Email": {"  Asha.Rao@Example.org "}}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("got %d -> %q, want 303 -> /dashboard", rec.Code, rec.Header().Get("Location"))
	}
	sess, ok := sessions.Get(context.Background(), sessionCookie(t, rec).Value)
	if !ok {
		t.Fatal("session not stored")
	}
	if sess.Role != account.RoleFaculty || sess.Email != "asha.rao@example.org" {
		t.Errorf("session = %+v", sess)
	}
}

func TestHandleLogin_UnknownEmailStillSignsIn(t *testing.T) {
	setupTest(t)
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", url.Values{"Email": {"stranger@example.org"}}))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("got %d, want 303", rec.Code)
	}
}

func TestHandleLogin_InvalidEmail(t *testing.T) {
	setupTest(t)
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", url.Values{"Email": {"not an email"}}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "valid email") {
		t.Error("error message not rendered")
	}
}

func TestHandleLogin_GET(t *testing.T) {
	setupTest(t)
	rec := httptest.NewRecorder()
	handleLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="Email"`) {
		t.Errorf("got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAdminLogin(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     int
	}{
		{"valid", testAdminUser, testAdminPassword, http.StatusSeeOther},
		{"wrong password", testAdminUser, "guess", http.StatusUnauthorized},
		{"wrong user", "admin", testAdminPassword, http.StatusUnauthorized},
		{"empty", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t)
			rec := httptest.NewRecorder()
			handleAdminLogin(rec, formRequest("/admin/login", url.Values{"Username": {tt.user}, "Password": {tt.password}}))
			if rec.Code != tt.want {
				t.Fatalf("got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusSeeOther && rec.Header().Get("Location") != "/admin" {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestHandleAdminLogin_NotConfigured(t *testing.T) {
	setupTest(t)
	settings.AdminPasswordHash = nil

	rec := httptest.NewRecorder()
	handleAdminLogin(rec, formRequest("/admin/login", url.Values{"Username": {testAdminUser}, "Password": {testAdminPassword}}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", rec.Code)
	}
}

func TestHandleAdminLogin_FailureAudited(t *testing.T) {
	env := setupTest(t)
	rec := httptest.NewRecorder()
	handleAdminLogin(rec, formRequest("/admin/login", url.Values{"Username": {testAdminUser}, "Password": {"guess"}}))

	events, err := env.audit.List(context.Background(), auditStore.Filter{Category: audit.CategoryAuth}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Severity != audit.SeverityWarning {
		t.Errorf("events = %+v", events)
	}
}

func TestHandleLogout(t *testing.T) {
	setupTest(t)
	token, err := sessions.Create(context.Background(), middleware.Session{Subject: testAdminUser, Role: account.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sessions.Get(context.Background(), token); !ok {
		t.Fatal("session not stored")
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "facultyhub_session", Value: token})
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/login" {
		t.Errorf("got %d -> %q, want 303 -> /admin/login", rec.Code, rec.Header().Get("Location"))
	}
	if _, ok := sessions.Get(context.Background(), token); ok {
		t.Error("session survived logout")
	}
}

func TestHandleHome_RedirectsByRole(t *testing.T) {
	setupTest(t)
	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"anonymous", httptest.NewRequest(http.MethodGet, "/", nil), "/login"},
		{"faculty", authRequest(http.MethodGet, "/", "", facultySession), "/dashboard"},
		{"admin", authRequest(http.MethodGet, "/", "", adminSession), "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleHome(rec, tt.req)
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Errorf("Location = %q, want %q", got, tt.want)
			}
		})
	}
}
