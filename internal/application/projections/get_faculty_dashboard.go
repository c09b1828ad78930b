package projections

import (
	"context"
	"log/slog"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// FacultyDashboardQuery identifies the faculty by login email.
type FacultyDashboardQuery struct {
	Email string
}

// FacultyDashboardDeps holds dependencies for the faculty dashboard projection.
type FacultyDashboardDeps struct {
	Records interface {
		FacultyReader
		SessionReader
	}
}

// FacultyDashboardResult is everything the faculty dashboard renders.
type FacultyDashboardResult struct {
	Faculty          faculty.Faculty
	Sessions         []session.Session
	Pending          []session.Session
	Counts           session.Counts
	ConfirmationRate int
	ResponseRate     int
	Halls            int

	// FetchFailed is set when a collection could not be read; the rest of
	// the result is then empty and must not be shown as "no sessions".
	FetchFailed       bool
	FailedCollections []string
}

// QueryFacultyDashboard derives the logged-in faculty's view.
// PRE: Email comes from the auth session
// POST: Returns ErrFacultyNotFound when Faculty was read and has no such
// email; returns FetchFailed when a read failed
func QueryFacultyDashboard(ctx context.Context, query FacultyDashboardQuery, deps FacultyDashboardDeps) (FacultyDashboardResult, error) {
	var result FacultyDashboardResult

	facs := records.Fetch(ctx, deps.Records.ListFaculty)
	if facs.Failed() {
		return dashboardFetchFailed(result, records.CollectionFaculty, facs.Err), nil
	}
	fac, ok := faculty.FindByEmail(facs.Records, query.Email)
	if !ok {
		slog.Info("dashboard_event", "event", "faculty_not_found", "email", query.Email)
		return result, ErrFacultyNotFound
	}
	result.Faculty = fac

	sessions := records.Fetch(ctx, deps.Records.ListSessions)
	if sessions.Failed() {
		return dashboardFetchFailed(result, records.CollectionSessions, sessions.Err), nil
	}

	result.Sessions = session.ForFaculty(sessions.Records, fac.ID)
	for _, s := range result.Sessions {
		if s.Status == session.StatusPending {
			result.Pending = append(result.Pending, s)
		}
	}
	result.Counts = session.Tally(result.Sessions)
	result.ConfirmationRate = result.Counts.ConfirmationRate()
	result.ResponseRate = result.Counts.ResponseRate()
	result.Halls = session.DistinctHalls(result.Sessions)
	return result, nil
}

func dashboardFetchFailed(result FacultyDashboardResult, collection string, err error) FacultyDashboardResult {
	slog.Error("dashboard_event", "event", "fetch_failed", "collection", collection, "category", records.Category(err), "error", err)
	result.FetchFailed = true
	result.FailedCollections = append(result.FailedCollections, collection)
	return result
}
