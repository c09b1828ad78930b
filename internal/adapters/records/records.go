// Package records defines the contract for the remote tabular backend that
// owns faculty, session and change request data.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"facultyhub/internal/adapters/metrics"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// Collection names as the backend spells them.
const (
	CollectionFaculty        = "Faculty"
	CollectionSessions       = "Sessions"
	CollectionChangeRequests = "Change Requests"
)

// Failure categories. Every error a Client returns wraps exactly one of these.
var (
	ErrTransport = errors.New("record backend unreachable")
	ErrStatus    = errors.New("record backend rejected the request")
	ErrDecode    = errors.New("record backend returned a malformed body")
)

// StatusError carries the HTTP status of a rejected call.
type StatusError struct {
	Collection string
	Code       int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s returned %d", ErrStatus, e.Collection, e.Code)
	}
	return fmt.Sprintf("%s: %s returned %d: %s", ErrStatus, e.Collection, e.Code, e.Body)
}

// Unwrap lets errors.Is(err, ErrStatus) match.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client reads and writes records in the remote backend. Each list call is
// one full-collection fetch; nothing is cached between calls.
type Client interface {
	ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
	ListSessions(ctx context.Context) ([]session.Session, error)
	ListChangeRequests(ctx context.Context) ([]changerequest.Request, error)

	// SetSessionStatus writes status with no transition guard; callers that
	// need one check session.CheckTransition first.
	SetSessionStatus(ctx context.Context, sessionID string, status session.Status) error

	// SetChangeRequestDecision writes Status, AdminNotes, DecidedAt and DecidedBy.
	SetChangeRequestDecision(ctx context.Context, req changerequest.Request) error

	// CreateChangeRequest stores a new request and returns it with its backend ID.
	CreateChangeRequest(ctx context.Context, req changerequest.Request) (changerequest.Request, error)
}

// Category names the failure class of err for logs and metrics labels.
func Category(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrTransport):
		return metrics.OutcomeTransport
	case errors.Is(err, ErrStatus):
		return metrics.OutcomeStatus
	case errors.Is(err, ErrDecode):
		return metrics.OutcomeDecode
	}
	return "other"
}

// Result is the outcome of one collection read: either Records or Err.
type Result[T any] struct {
	Records []T
	Err     error
}

// Failed reports whether the read failed.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Fetch runs a list call and captures its outcome.
func Fetch[T any](ctx context.Context, list func(context.Context) ([]T, error)) Result[T] {
	recs, err := list(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Records: recs}
}

// Lenient returns the records of a list call, or an empty slice after
// logging the failure. Use it only where partial data is acceptable.
func Lenient[T any](ctx context.Context, collection string, list func(context.Context) ([]T, error)) []T {
	res := Fetch(ctx, list)
	if res.Failed() {
		slog.Warn("records_lenient_fallback", "collection", collection, "category", Category(res.Err), "error", res.Err)
		return nil
	}
	return res.Records
}
