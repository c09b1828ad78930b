package projections

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// AdminOverviewDeps holds dependencies for the admin overview projection.
type AdminOverviewDeps struct {
	Records RecordReader
}

// AdminOverviewResult carries the overview statistics. A failed collection
// contributes zero counts and sets its flag.
type AdminOverviewResult struct {
	TotalFaculty     int
	ActiveFaculty    int
	Sessions         session.Counts
	ConfirmationRate int
	ResponseRate     int
	Halls            int
	ChangeRequests   changerequest.Summary

	FacultyFailed        bool
	SessionsFailed       bool
	ChangeRequestsFailed bool
}

// Degraded reports whether any collection failed to load.
func (r AdminOverviewResult) Degraded() bool {
	return r.FacultyFailed || r.SessionsFailed || r.ChangeRequestsFailed
}

// QueryAdminOverview reads the three collections concurrently and aggregates
// them. Each read fails independently; the others still populate.
// PRE: none
// POST: Never returns an error; failures are reported through the flags
func QueryAdminOverview(ctx context.Context, deps AdminOverviewDeps) AdminOverviewResult {
	var (
		facs     records.Result[faculty.Faculty]
		sessions records.Result[session.Session]
		requests records.Result[changerequest.Request]
		g        errgroup.Group
	)
	g.Go(func() error {
		facs = records.Fetch(ctx, deps.Records.ListFaculty)
		return nil
	})
	g.Go(func() error {
		sessions = records.Fetch(ctx, deps.Records.ListSessions)
		return nil
	})
	g.Go(func() error {
		requests = records.Fetch(ctx, deps.Records.ListChangeRequests)
		return nil
	})
	g.Wait()

	var result AdminOverviewResult
	if facs.Failed() {
		result.FacultyFailed = true
		logOverviewFailure(records.CollectionFaculty, facs.Err)
	}
	result.TotalFaculty = len(facs.Records)
	for _, f := range facs.Records {
		if f.IsActive() {
			result.ActiveFaculty++
		}
	}

	if sessions.Failed() {
		result.SessionsFailed = true
		logOverviewFailure(records.CollectionSessions, sessions.Err)
	}
	result.Sessions = session.Tally(sessions.Records)
	result.ConfirmationRate = result.Sessions.ConfirmationRate()
	result.ResponseRate = result.Sessions.ResponseRate()
	result.Halls = session.DistinctHalls(sessions.Records)

	if requests.Failed() {
		result.ChangeRequestsFailed = true
		logOverviewFailure(records.CollectionChangeRequests, requests.Err)
	}
	result.ChangeRequests = changerequest.Summarize(requests.Records)

	return result
}

func logOverviewFailure(collection string, err error) {
	slog.Error("overview_fetch_failed", "collection", collection, "category", records.Category(err), "error", err)
}
