package projections

import (
	"context"

	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// ErrFacultyNotFound is returned when a login email matches no faculty record.
var ErrFacultyNotFound = faculty.ErrNotFound

// FacultyReader lists the Faculty collection.
type FacultyReader interface {
	ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
}

// SessionReader lists the Sessions collection.
type SessionReader interface {
	ListSessions(ctx context.Context) ([]session.Session, error)
}

// ChangeRequestReader lists the Change Requests collection.
type ChangeRequestReader interface {
	ListChangeRequests(ctx context.Context) ([]changerequest.Request, error)
}

// RecordReader reads all three collections.
type RecordReader interface {
	FacultyReader
	SessionReader
	ChangeRequestReader
}
