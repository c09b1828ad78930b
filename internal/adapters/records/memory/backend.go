// Package memory is an in-process records.Client over seeded data, used for
// local development and as the backend in handler tests.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// Backend holds the three collections behind a mutex.
type Backend struct {
	mu       sync.RWMutex
	faculty  []faculty.Faculty
	sessions []session.Session
	requests []changerequest.Request
	failures map[string]error
	now      func() time.Time
}

var _ records.Client = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{failures: map[string]error{}, now: time.Now}
}

// AddFaculty appends faculty records.
func (b *Backend) AddFaculty(fs ...faculty.Faculty) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faculty = append(b.faculty, fs...)
}

// AddSessions appends session records.
func (b *Backend) AddSessions(ss ...session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range ss {
		s.FacultyIDs = slices.Clone(s.FacultyIDs)
		b.sessions = append(b.sessions, s)
	}
}

// AddChangeRequests appends change request records.
func (b *Backend) AddChangeRequests(rs ...changerequest.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, rs...)
}

// SetFailure makes every call touching collection return err until cleared
// with a nil err.
func (b *Backend) SetFailure(collection string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, collection)
		return
	}
	b.failures[collection] = err
}

// SetClock overrides the time source used for new records.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// ListFaculty returns a copy of the faculty collection.
func (b *Backend) ListFaculty(ctx context.Context) ([]faculty.Faculty, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx, records.CollectionFaculty); err != nil {
		return nil, err
	}
	return slices.Clone(b.faculty), nil
}

// ListSessions returns normalised copies of the session collection.
func (b *Backend) ListSessions(ctx context.Context) ([]session.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx, records.CollectionSessions); err != nil {
		return nil, err
	}
	out := make([]session.Session, len(b.sessions))
	for i, s := range b.sessions {
		s.FacultyIDs = slices.Clone(s.FacultyIDs)
		out[i] = s.Normalize()
	}
	return out, nil
}

// ListChangeRequests returns a copy of the change request collection.
func (b *Backend) ListChangeRequests(ctx context.Context) ([]changerequest.Request, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx, records.CollectionChangeRequests); err != nil {
		return nil, err
	}
	return slices.Clone(b.requests), nil
}

// SetSessionStatus overwrites a session's status with no transition check.
func (b *Backend) SetSessionStatus(ctx context.Context, sessionID string, status session.Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx, records.CollectionSessions); err != nil {
		return err
	}
	for i := range b.sessions {
		if b.sessions[i].ID == sessionID {
			b.sessions[i].Status = status
			return nil
		}
	}
	return notFound(records.CollectionSessions)
}

// SetChangeRequestDecision stores the decision fields of an existing request.
func (b *Backend) SetChangeRequestDecision(ctx context.Context, req changerequest.Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx, records.CollectionChangeRequests); err != nil {
		return err
	}
	for i := range b.requests {
		if b.requests[i].ID == req.ID {
			b.requests[i].Status = req.Status
			b.requests[i].AdminNotes = req.AdminNotes
			b.requests[i].DecidedAt = req.DecidedAt
			b.requests[i].DecidedBy = req.DecidedBy
			return nil
		}
	}
	return notFound(records.CollectionChangeRequests)
}

// CreateChangeRequest stores a new pending request with a generated ID.
func (b *Backend) CreateChangeRequest(ctx context.Context, req changerequest.Request) (changerequest.Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx, records.CollectionChangeRequests); err != nil {
		return changerequest.Request{}, err
	}
	req.ID = "rec" + uuid.New().String()[:8]
	req.Status = changerequest.StatusPending
	req.Priority = changerequest.NormalizePriority(req.Priority)
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = b.now()
	}
	b.requests = append(b.requests, req)
	return req, nil
}

func (b *Backend) check(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", records.ErrTransport, collection, err)
	}
	return b.failures[collection]
}

func notFound(collection string) error {
	return &records.StatusError{Collection: collection, Code: http.StatusNotFound, Body: "record not found"}
}
