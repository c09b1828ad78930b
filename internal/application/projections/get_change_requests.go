package projections

import (
	"cmp"
	"context"
	"slices"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// ChangeRequestsDeps holds dependencies for the change request projections.
type ChangeRequestsDeps struct {
	Records RecordReader
}

// RequestRow is a change request with display names resolved.
type RequestRow struct {
	Request     changerequest.Request
	FacultyName string
	SessionCode string
	SessionName string
}

// ChangeRequestsResult splits requests for the admin review screen.
type ChangeRequestsResult struct {
	Pending   []RequestRow
	Processed []RequestRow
	Summary   changerequest.Summary

	FetchFailed bool
}

// QueryChangeRequests lists all requests partitioned into pending and
// processed. Pending rows are ordered high priority first, then oldest first;
// processed rows most recently decided first.
// PRE: none
// POST: FetchFailed is set when Change Requests could not be read
func QueryChangeRequests(ctx context.Context, deps ChangeRequestsDeps) ChangeRequestsResult {
	reqs := records.Fetch(ctx, deps.Records.ListChangeRequests)
	if reqs.Failed() {
		logOverviewFailure(records.CollectionChangeRequests, reqs.Err)
		return ChangeRequestsResult{FetchFailed: true}
	}
	facs := faculty.IndexByID(records.Lenient(ctx, records.CollectionFaculty, deps.Records.ListFaculty))
	sessions := records.Lenient(ctx, records.CollectionSessions, deps.Records.ListSessions)

	pending, processed := changerequest.Partition(reqs.Records)
	slices.SortStableFunc(pending, func(a, b changerequest.Request) int {
		if c := cmp.Compare(priorityRank(b.Priority), priorityRank(a.Priority)); c != 0 {
			return c
		}
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})
	slices.SortStableFunc(processed, func(a, b changerequest.Request) int {
		return b.DecidedAt.Compare(a.DecidedAt)
	})

	return ChangeRequestsResult{
		Pending:   requestRows(pending, facs, sessions),
		Processed: requestRows(processed, facs, sessions),
		Summary:   changerequest.Summarize(reqs.Records),
	}
}

// MyChangeRequestsQuery identifies the faculty by login email.
type MyChangeRequestsQuery struct {
	Email string
}

// MyChangeRequestsResult is the faculty's own requests, newest first.
type MyChangeRequestsResult struct {
	Rows        []RequestRow
	FetchFailed bool
}

// QueryMyChangeRequests lists the requests submitted by the logged-in faculty.
// PRE: Email comes from the auth session
// POST: Returns ErrFacultyNotFound when the email matches no faculty
func QueryMyChangeRequests(ctx context.Context, query MyChangeRequestsQuery, deps ChangeRequestsDeps) (MyChangeRequestsResult, error) {
	facs := records.Fetch(ctx, deps.Records.ListFaculty)
	if facs.Failed() {
		logOverviewFailure(records.CollectionFaculty, facs.Err)
		return MyChangeRequestsResult{FetchFailed: true}, nil
	}
	fac, ok := faculty.FindByEmail(facs.Records, query.Email)
	if !ok {
		return MyChangeRequestsResult{}, ErrFacultyNotFound
	}
	reqs := records.Fetch(ctx, deps.Records.ListChangeRequests)
	if reqs.Failed() {
		logOverviewFailure(records.CollectionChangeRequests, reqs.Err)
		return MyChangeRequestsResult{FetchFailed: true}, nil
	}

	var mine []changerequest.Request
	for _, r := range reqs.Records {
		if r.FacultyID == fac.ID {
			mine = append(mine, r)
		}
	}
	slices.SortStableFunc(mine, func(a, b changerequest.Request) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	sessions := records.Lenient(ctx, records.CollectionSessions, deps.Records.ListSessions)
	return MyChangeRequestsResult{Rows: requestRows(mine, faculty.IndexByID(facs.Records), sessions)}, nil
}

func priorityRank(p string) int {
	return slices.Index(changerequest.Priorities, p)
}

func requestRows(reqs []changerequest.Request, facs map[string]faculty.Faculty, sessions []session.Session) []RequestRow {
	rows := make([]RequestRow, 0, len(reqs))
	for _, r := range reqs {
		row := RequestRow{Request: r}
		if f, ok := facs[r.FacultyID]; ok {
			row.FacultyName = f.DisplayName()
		}
		if s, ok := session.FindByID(sessions, r.SessionID); ok {
			row.SessionCode = s.Code
			row.SessionName = s.Topic
		}
		rows = append(rows, row)
	}
	return rows
}
