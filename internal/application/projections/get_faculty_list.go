package projections

import (
	"context"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/application/listutil"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// FacultyListQuery carries search, status filter and page for the faculty list.
type FacultyListQuery struct {
	Filter listutil.FilterParams // "status" filter: Active | Inactive
	Page   listutil.PageParams
}

// FacultyListDeps holds dependencies for the faculty list projection.
type FacultyListDeps struct {
	Records interface {
		FacultyReader
		SessionReader
	}
}

// FacultyRow is one faculty with their session tallies.
type FacultyRow struct {
	Faculty faculty.Faculty
	Counts  session.Counts
}

// FacultyListResult is one page of faculty rows.
type FacultyListResult struct {
	Rows     []FacultyRow
	PageInfo listutil.PageInfo

	FacultyFailed  bool
	SessionsFailed bool // rows are listed with zero tallies
}

// QueryFacultyList filters, tallies and paginates the Faculty collection.
// PRE: none
// POST: Rows preserve backend order; search covers name, email, city, institution
func QueryFacultyList(ctx context.Context, query FacultyListQuery, deps FacultyListDeps) FacultyListResult {
	var result FacultyListResult
	facs := records.Fetch(ctx, deps.Records.ListFaculty)
	if facs.Failed() {
		logOverviewFailure(records.CollectionFaculty, facs.Err)
		result.FacultyFailed = true
		result.PageInfo = listutil.NewPageInfo(1, query.Page.PerPage, 0)
		return result
	}
	sessions := records.Fetch(ctx, deps.Records.ListSessions)
	if sessions.Failed() {
		logOverviewFailure(records.CollectionSessions, sessions.Err)
		result.SessionsFailed = true
	}

	status := faculty.NormalizeStatus(query.Filter.Filter("status"))
	var rows []FacultyRow
	for _, f := range facs.Records {
		if status != "" && faculty.NormalizeStatus(f.Status) != status {
			continue
		}
		if !listutil.Matches(query.Filter.Search, f.Name, f.Email, f.City, f.Institution) {
			continue
		}
		rows = append(rows, FacultyRow{Faculty: f, Counts: session.Tally(session.ForFaculty(sessions.Records, f.ID))})
	}

	result.PageInfo = listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(rows))
	result.Rows = listutil.Paginate(rows, result.PageInfo)
	return result
}
