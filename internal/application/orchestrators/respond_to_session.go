package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/audit"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// RespondRecords is the slice of records.Client the response command needs.
type RespondRecords interface {
	ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
	ListSessions(ctx context.Context) ([]session.Session, error)
	SetSessionStatus(ctx context.Context, sessionID string, status session.Status) error
}

// RespondToSessionInput carries a faculty answer to one session.
type RespondToSessionInput struct {
	FacultyEmail string
	SessionID    string
	Response     string
	Comment      string
	IPAddress    string
}

// RespondToSessionDeps holds dependencies for RespondToSession.
type RespondToSessionDeps struct {
	Records    RespondRecords
	AuditStore AuditStore
	Now        func() time.Time
}

// RespondToSessionResult is the faculty view re-derived after the write.
type RespondToSessionResult struct {
	Faculty  faculty.Faculty
	Session  session.Session
	Sessions []session.Session
	// RefreshFailed is set when the write succeeded but the follow-up read
	// did not; Sessions is then empty and Session holds the written status.
	RefreshFailed bool
}

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotAssigned = errors.New("session is not assigned to this faculty")
)

// ExecuteRespondToSession confirms or declines a session on behalf of the
// logged-in faculty.
// PRE: FacultyEmail is the email from the auth session
// POST: On success exactly one status write was issued, followed by one full
// read of Sessions whose result is filtered for the faculty
// INVARIANT: Only a pending session assigned to the faculty accepts a response
func ExecuteRespondToSession(ctx context.Context, input RespondToSessionInput, deps RespondToSessionDeps) (RespondToSessionResult, error) {
	to, err := session.ParseStatus(input.Response)
	if err != nil || !to.IsResponse() {
		return RespondToSessionResult{}, session.ErrInvalidResponse
	}

	all, err := deps.Records.ListFaculty(ctx)
	if err != nil {
		return RespondToSessionResult{}, fmt.Errorf("load faculty: %w", err)
	}
	fac, ok := faculty.FindByEmail(all, input.FacultyEmail)
	if !ok {
		slog.Info("session_event", "event", "respond_rejected", "email", input.FacultyEmail, "reason", "faculty_not_found")
		return RespondToSessionResult{}, faculty.ErrNotFound
	}

	sessions, err := deps.Records.ListSessions(ctx)
	if err != nil {
		return RespondToSessionResult{}, fmt.Errorf("load sessions: %w", err)
	}
	current, ok := session.FindByID(sessions, input.SessionID)
	if !ok {
		return RespondToSessionResult{}, ErrSessionNotFound
	}
	if !current.IsAssignedTo(fac.ID) {
		slog.Info("session_event", "event", "respond_rejected", "faculty_id", fac.ID, "session_id", current.ID, "reason", "not_assigned")
		return RespondToSessionResult{}, ErrSessionNotAssigned
	}
	if err := session.CheckTransition(current.Normalize().Status, to); err != nil {
		return RespondToSessionResult{}, err
	}

	if err := deps.Records.SetSessionStatus(ctx, current.ID, to); err != nil {
		if records.IsNotFound(err) {
			return RespondToSessionResult{}, ErrSessionNotFound
		}
		return RespondToSessionResult{}, fmt.Errorf("write session status: %w", err)
	}

	slog.Info("session_event", "event", "session_responded", "faculty_id", fac.ID, "session_id", current.ID, "from", current.Status, "to", to)
	desc := fmt.Sprintf("%s %s", to.Label(), current.Code)
	if input.Comment != "" {
		desc += ": " + input.Comment
	}
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(fac.ID, account.RoleFaculty, audit.CategorySession, audit.ActionRespond, deps.Now()).
		WithResource("session", current.ID).
		WithDescription(desc).
		WithIP(input.IPAddress))

	result := RespondToSessionResult{Faculty: fac}
	current.Status = to
	result.Session = current

	refreshed, err := deps.Records.ListSessions(ctx)
	if err != nil {
		slog.Warn("session_event", "event", "refresh_failed", "faculty_id", fac.ID, "category", records.Category(err), "error", err)
		result.RefreshFailed = true
		return result, nil
	}
	result.Sessions = session.ForFaculty(refreshed, fac.ID)
	if s, ok := session.FindByID(result.Sessions, current.ID); ok {
		result.Session = s
	}
	return result, nil
}
