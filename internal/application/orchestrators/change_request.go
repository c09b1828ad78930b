package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/audit"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// --- Submit Change Request ---

// SubmitRecords is the slice of records.Client used by faculty submissions.
type SubmitRecords interface {
	ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
	ListSessions(ctx context.Context) ([]session.Session, error)
	CreateChangeRequest(ctx context.Context, req changerequest.Request) (changerequest.Request, error)
}

// SubmitChangeRequestInput carries a new request from the faculty dashboard.
type SubmitChangeRequestInput struct {
	FacultyEmail string
	SessionID    string // optional
	Type         string
	Description  string
	Priority     string
	IPAddress    string
}

// SubmitChangeRequestDeps holds dependencies for SubmitChangeRequest.
type SubmitChangeRequestDeps struct {
	Records    SubmitRecords
	AuditStore AuditStore
	Now        func() time.Time
}

// ExecuteSubmitChangeRequest validates and stores a faculty change request.
// PRE: FacultyEmail is the email from the auth session
// POST: A pending request exists in the backend; it is returned with its ID
// INVARIANT: A referenced session must be assigned to the requesting faculty
func ExecuteSubmitChangeRequest(ctx context.Context, input SubmitChangeRequestInput, deps SubmitChangeRequestDeps) (changerequest.Request, error) {
	all, err := deps.Records.ListFaculty(ctx)
	if err != nil {
		return changerequest.Request{}, fmt.Errorf("load faculty: %w", err)
	}
	fac, ok := faculty.FindByEmail(all, input.FacultyEmail)
	if !ok {
		return changerequest.Request{}, faculty.ErrNotFound
	}

	req := changerequest.Request{
		FacultyID:   fac.ID,
		SessionID:   strings.TrimSpace(input.SessionID),
		Type:        changerequest.NormalizeType(input.Type),
		Description: strings.TrimSpace(input.Description),
		Status:      changerequest.StatusPending,
		Priority:    changerequest.NormalizePriority(input.Priority),
		SubmittedAt: deps.Now(),
	}
	if err := req.Validate(); err != nil {
		return changerequest.Request{}, err
	}

	if req.SessionID != "" {
		sessions, err := deps.Records.ListSessions(ctx)
		if err != nil {
			return changerequest.Request{}, fmt.Errorf("load sessions: %w", err)
		}
		s, ok := session.FindByID(sessions, req.SessionID)
		if !ok {
			return changerequest.Request{}, ErrSessionNotFound
		}
		if !s.IsAssignedTo(fac.ID) {
			return changerequest.Request{}, ErrSessionNotAssigned
		}
	}

	created, err := deps.Records.CreateChangeRequest(ctx, req)
	if err != nil {
		return changerequest.Request{}, fmt.Errorf("create change request: %w", err)
	}

	slog.Info("change_request_event", "event", "submitted", "request_id", created.ID, "faculty_id", fac.ID, "type", created.Type, "priority", created.Priority)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(fac.ID, account.RoleFaculty, audit.CategoryChangeRequest, audit.ActionSubmit, deps.Now()).
		WithResource("change_request", created.ID).
		WithDescription(created.Type).
		WithIP(input.IPAddress))
	return created, nil
}

// --- Decide Change Request ---

// DecideRecords is the slice of records.Client used by admin decisions.
type DecideRecords interface {
	ListChangeRequests(ctx context.Context) ([]changerequest.Request, error)
	SetChangeRequestDecision(ctx context.Context, req changerequest.Request) error
}

// Decisions an admin can take.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

var (
	ErrChangeRequestNotFound = errors.New("change request not found")
	ErrInvalidDecision       = errors.New("decision must be approve or reject")
)

// DecideChangeRequestInput carries an admin decision.
type DecideChangeRequestInput struct {
	RequestID string
	Decision  string
	Notes     string
	AdminID   string
	IPAddress string
}

// DecideChangeRequestDeps holds dependencies for DecideChangeRequest.
type DecideChangeRequestDeps struct {
	Records    DecideRecords
	AuditStore AuditStore
	Now        func() time.Time
}

// ExecuteDecideChangeRequest approves or rejects a pending request.
// PRE: AdminID is the authenticated admin
// POST: The decision fields are written to the backend; the decided request is returned
// INVARIANT: Approved and rejected requests are terminal
func ExecuteDecideChangeRequest(ctx context.Context, input DecideChangeRequestInput, deps DecideChangeRequestDeps) (changerequest.Request, error) {
	decision := strings.ToLower(strings.TrimSpace(input.Decision))
	if decision != DecisionApprove && decision != DecisionReject {
		return changerequest.Request{}, ErrInvalidDecision
	}

	all, err := deps.Records.ListChangeRequests(ctx)
	if err != nil {
		return changerequest.Request{}, fmt.Errorf("load change requests: %w", err)
	}
	req, ok := changerequest.FindByID(all, input.RequestID)
	if !ok {
		return changerequest.Request{}, ErrChangeRequestNotFound
	}

	now := deps.Now()
	action := audit.ActionApprove
	if decision == DecisionApprove {
		err = req.Approve(input.AdminID, input.Notes, now)
	} else {
		action = audit.ActionReject
		err = req.Reject(input.AdminID, input.Notes, now)
	}
	if err != nil {
		slog.Info("change_request_event", "event", "decision_rejected", "request_id", req.ID, "status", req.Status, "error", err)
		return changerequest.Request{}, err
	}

	if err := deps.Records.SetChangeRequestDecision(ctx, req); err != nil {
		if records.IsNotFound(err) {
			return changerequest.Request{}, ErrChangeRequestNotFound
		}
		return changerequest.Request{}, fmt.Errorf("write decision: %w", err)
	}

	slog.Info("change_request_event", "event", "decided", "request_id", req.ID, "status", req.Status, "admin", input.AdminID)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(input.AdminID, account.RoleAdmin, audit.CategoryChangeRequest, action, now).
		WithResource("change_request", req.ID).
		WithDescription(req.AdminNotes).
		WithIP(input.IPAddress))
	return req, nil
}
