package orchestrators

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/audit"
	"facultyhub/internal/domain/faculty"
)

// AdminLoginInput carries input for the admin login orchestrator.
type AdminLoginInput struct {
	Username  string
	Password  string
	IPAddress string
}

// AdminLoginDeps holds dependencies for AdminLogin. The credential pair is
// runtime configuration; there is no admin account table.
type AdminLoginDeps struct {
	Username     string
	PasswordHash []byte
	AuditStore   AuditStore
	Now          func() time.Time
}

// FacultyLoginInput carries input for the faculty login orchestrator.
type FacultyLoginInput struct {
	Email     string
	IPAddress string
}

// FacultyLoginDeps holds dependencies for FacultyLogin.
type FacultyLoginDeps struct {
	AuditStore AuditStore
	Now        func() time.Time
}

// LoginResult carries the identity to store in the auth session.
type LoginResult struct {
	Subject string
	Email   string
	Role    string
}

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotConfigured = errors.New("admin login is not configured")
)

// ExecuteAdminLogin checks the submitted pair against the configured admin
// credentials.
// PRE: deps.Now is set
// POST: Returns the admin identity on success, ErrInvalidCredentials otherwise
// INVARIANT: Username comparison is constant time; password is checked with bcrypt
func ExecuteAdminLogin(ctx context.Context, input AdminLoginInput, deps AdminLoginDeps) (LoginResult, error) {
	if deps.Username == "" || len(deps.PasswordHash) == 0 {
		slog.Error("auth_event", "event", "admin_login_blocked", "reason", "not_configured")
		return LoginResult{}, ErrAdminNotConfigured
	}
	if input.Username == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(deps.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(deps.PasswordHash, []byte(input.Password))
	if !userOK || passErr != nil {
		slog.Info("auth_event", "event", "login_failed", "role", account.RoleAdmin, "username", input.Username, "ip", input.IPAddress)
		recordAudit(ctx, deps.AuditStore, audit.NewEvent(input.Username, account.RoleAdmin, audit.CategoryAuth, audit.ActionLogin, deps.Now()).
			WithSeverity(audit.SeverityWarning).
			WithDescription("admin login failed").
			WithIP(input.IPAddress))
		return LoginResult{}, ErrInvalidCredentials
	}

	slog.Info("auth_event", "event", "login_success", "role", account.RoleAdmin, "username", input.Username)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(deps.Username, account.RoleAdmin, audit.CategoryAuth, audit.ActionLogin, deps.Now()).
		WithDescription("admin signed in").
		WithIP(input.IPAddress))

	return LoginResult{Subject: deps.Username, Role: account.RoleAdmin}, nil
}

// ExecuteFacultyLogin accepts any syntactically valid email. Whether the
// address belongs to a faculty record is resolved when the dashboard loads.
// PRE: deps.Now is set
// POST: Returns a faculty identity keyed by the normalized email
func ExecuteFacultyLogin(ctx context.Context, input FacultyLoginInput, deps FacultyLoginDeps) (LoginResult, error) {
	email := faculty.NormalizeEmail(input.Email)
	if err := faculty.ValidateEmail(email); err != nil {
		slog.Info("auth_event", "event", "login_failed", "role", account.RoleFaculty, "reason", "invalid_email")
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "role", account.RoleFaculty, "email", email)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(email, account.RoleFaculty, audit.CategoryAuth, audit.ActionLogin, deps.Now()).
		WithDescription("faculty signed in").
		WithIP(input.IPAddress))

	return LoginResult{Subject: email, Email: email, Role: account.RoleFaculty}, nil
}

// LogoutInput identifies the session being ended.
type LogoutInput struct {
	Subject   string
	Role      string
	IPAddress string
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	AuditStore AuditStore
	Now        func() time.Time
}

// ExecuteLogout records the end of a login. Removing the session itself is
// the caller's job.
// PRE: Subject is non-empty
// POST: An auth/logout audit event is recorded
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) {
	slog.Info("auth_event", "event", "logout", "role", input.Role, "subject", input.Subject)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(input.Subject, input.Role, audit.CategoryAuth, audit.ActionLogout, deps.Now()).
		WithIP(input.IPAddress))
}
