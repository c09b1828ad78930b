package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/adapters/records"
	messageStore "facultyhub/internal/adapters/storage/message"
	"facultyhub/internal/application/orchestrators"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

// timeNow is a variable for testability.
var timeNow = time.Now

//go:embed templates/*.html
var templateFS embed.FS

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errBackendUnavailable is what clients see for transport, status and decode
// failures of the record backend.
const errBackendUnavailable = "record backend unavailable, try again"

// statusFor maps a domain or record error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, faculty.ErrNotFound),
		errors.Is(err, orchestrators.ErrSessionNotFound),
		errors.Is(err, orchestrators.ErrChangeRequestNotFound),
		errors.Is(err, messageStore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrators.ErrSessionNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNotPending),
		errors.Is(err, changerequest.ErrAlreadyDecided),
		errors.Is(err, message.ErrNotDraft),
		errors.Is(err, message.ErrAlreadySent):
		return http.StatusConflict
	case errors.Is(err, message.ErrNoRecipients):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrInvalidResponse),
		errors.Is(err, changerequest.ErrInvalidType),
		errors.Is(err, changerequest.ErrEmptyDescription),
		errors.Is(err, changerequest.ErrDescriptionLong),
		errors.Is(err, changerequest.ErrInvalidPriority),
		errors.Is(err, orchestrators.ErrInvalidDecision),
		errors.Is(err, orchestrators.ErrInvalidAction),
		errors.Is(err, orchestrators.ErrMissingSchedule),
		errors.Is(err, message.ErrEmptySubject),
		errors.Is(err, message.ErrEmptyBody),
		errors.Is(err, message.ErrNoGroups),
		errors.Is(err, message.ErrInvalidGroup),
		errors.Is(err, message.ErrScheduleInPast),
		errors.Is(err, faculty.ErrEmptyEmail),
		errors.Is(err, faculty.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrTransport),
		errors.Is(err, records.ErrStatus),
		errors.Is(err, records.ErrDecode):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers a failed command as JSON. Backend failures are logged
// with their category; unknown errors go through internalError.
func writeError(w http.ResponseWriter, err error) {
	switch status := statusFor(err); status {
	case http.StatusInternalServerError:
		internalError(w, err)
	case http.StatusBadGateway:
		slog.Warn("records_unavailable", "category", records.Category(err), "error", err)
		writeJSONError(w, status, errBackendUnavailable)
	default:
		writeJSONError(w, status, err.Error())
	}
}

// currentSession returns the login session, answering 401 when there is none.
func currentSession(w http.ResponseWriter, r *http.Request, role string) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return middleware.Session{}, false
	}
	if sess.Role != role {
		writeJSONError(w, http.StatusForbidden, "forbidden")
		return middleware.Session{}, false
	}
	return sess, true
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	subject := ""
	if ok {
		role = sess.Role
		subject = sess.Subject
	}

	funcMap := template.FuncMap{
		"currentRole":    func() string { return role },
		"currentSubject": func() string { return subject },
		"isLoggedIn":     func() bool { return role != "" },
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			html, err := orchestrators.RenderMarkdown(md)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(html)
		},
		"statusClass": func(s session.Status) string { return "status-" + string(s) },
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("02 Jan 2006 15:04")
		},
		"add": func(a, b int) int { return a + b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// handleHome sends each visitor to the page for their role.
func handleHome(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	switch {
	case ok && sess.Role == account.RoleAdmin:
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	case ok && sess.Role == account.RoleFaculty:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startSession stores a login and sets the session cookie.
func startSession(w http.ResponseWriter, r *http.Request, res orchestrators.LoginResult) error {
	token, err := sessions.Create(r.Context(), middleware.Session{
		Subject: res.Subject,
		Email:   res.Email,
		Role:    res.Role,
	})
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, settings.SecureCookies)
	return nil
}

// handleLogin serves the faculty email login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if sess, ok := middleware.GetSessionFromContext(r.Context()); ok && sess.Role == account.RoleFaculty {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{"Error": "", "Email": ""})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		email := r.FormValue("Email")
		res, err := orchestrators.ExecuteFacultyLogin(r.Context(), orchestrators.FacultyLoginInput{
			Email:     email,
			IPAddress: middleware.ClientIP(r),
		}, orchestrators.FacultyLoginDeps{AuditStore: stores.AuditStore, Now: timeNow})
		if err != nil {
			renderTemplateStatus(w, r, http.StatusBadRequest, "login.html", map[string]any{
				"Error": "Please enter a valid email address.",
				"Email": email,
			})
			return
		}
		if err := startSession(w, r, res); err != nil {
			internalError(w, err)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminLogin serves the admin username and password login.
func handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if sess, ok := middleware.GetSessionFromContext(r.Context()); ok && sess.Role == account.RoleAdmin {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "admin_login.html", map[string]any{"Error": ""})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		res, err := orchestrators.ExecuteAdminLogin(r.Context(), orchestrators.AdminLoginInput{
			Username:  r.FormValue("Username"),
			Password:  r.FormValue("Password"),
			IPAddress: middleware.ClientIP(r),
		}, orchestrators.AdminLoginDeps{
			Username:     settings.AdminUser,
			PasswordHash: settings.AdminPasswordHash,
			AuditStore:   stores.AuditStore,
			Now:          timeNow,
		})
		switch {
		case errors.Is(err, orchestrators.ErrAdminNotConfigured):
			renderTemplateStatus(w, r, http.StatusServiceUnavailable, "admin_login.html", map[string]any{"Error": "Admin login is not configured."})
			return
		case err != nil:
			renderTemplateStatus(w, r, http.StatusUnauthorized, "admin_login.html", map[string]any{"Error": "Invalid username or password."})
			return
		}
		if err := startSession(w, r, res); err != nil {
			internalError(w, err)
			return
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLogout ends the session and returns to the login page for its role.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	role := account.RoleFaculty
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		role = sess.Role
		orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{
			Subject:   sess.Subject,
			Role:      sess.Role,
			IPAddress: middleware.ClientIP(r),
		}, orchestrators.LogoutDeps{AuditStore: stores.AuditStore, Now: timeNow})
	}
	if token := middleware.SessionToken(r); token != "" {
		if err := sessions.Delete(r.Context(), token); err != nil {
			slog.Warn("auth_event", "event", "session_delete_failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(w, settings.SecureCookies)
	http.Redirect(w, r, middleware.LoginPath(role), http.StatusSeeOther)
}
