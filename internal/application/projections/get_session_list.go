package projections

import (
	"context"
	"slices"
	"strings"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/application/listutil"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// SessionListQuery carries search, hall and status filters and page.
type SessionListQuery struct {
	Filter listutil.FilterParams // "hall" and "status" filters
	Page   listutil.PageParams
}

// SessionListDeps holds dependencies for the session list projection.
type SessionListDeps struct {
	Records interface {
		FacultyReader
		SessionReader
	}
}

// SessionRow is a session with its assigned faculty names resolved.
type SessionRow struct {
	Session      session.Session
	FacultyNames []string
}

// SessionListResult is one page of sessions plus the hall filter options.
type SessionListResult struct {
	Rows     []SessionRow
	Halls    []string
	PageInfo listutil.PageInfo

	SessionsFailed bool
}

// QuerySessionList filters and paginates the Sessions collection. Faculty
// names are best effort: if Faculty cannot be read rows show no names.
// PRE: none
// POST: Search covers code, topic, hall and faculty names; an unknown status
// filter matches nothing
func QuerySessionList(ctx context.Context, query SessionListQuery, deps SessionListDeps) SessionListResult {
	var result SessionListResult
	sessions := records.Fetch(ctx, deps.Records.ListSessions)
	if sessions.Failed() {
		logOverviewFailure(records.CollectionSessions, sessions.Err)
		result.SessionsFailed = true
		result.PageInfo = listutil.NewPageInfo(1, query.Page.PerPage, 0)
		return result
	}
	names := faculty.IndexByID(records.Lenient(ctx, records.CollectionFaculty, deps.Records.ListFaculty))

	var statusFilter session.Status
	if raw := query.Filter.Filter("status"); raw != "" {
		st, err := session.ParseStatus(raw)
		if err != nil {
			st = session.Status("invalid")
		}
		statusFilter = st
	}
	hallFilter := query.Filter.Filter("hall")

	var rows []SessionRow
	for _, s := range sessions.Records {
		s = s.Normalize()
		if h := strings.TrimSpace(s.Hall); h != "" && !slices.Contains(result.Halls, h) {
			result.Halls = append(result.Halls, h)
		}
		if statusFilter != "" && s.Status != statusFilter {
			continue
		}
		if hallFilter != "" && !strings.EqualFold(strings.TrimSpace(s.Hall), hallFilter) {
			continue
		}
		row := SessionRow{Session: s}
		for _, id := range s.FacultyIDs {
			if f, ok := names[id]; ok {
				row.FacultyNames = append(row.FacultyNames, f.DisplayName())
			}
		}
		fields := append([]string{s.Code, s.Topic, s.Hall}, row.FacultyNames...)
		if !listutil.Matches(query.Filter.Search, fields...) {
			continue
		}
		rows = append(rows, row)
	}
	slices.Sort(result.Halls)

	result.PageInfo = listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(rows))
	result.Rows = listutil.Paginate(rows, result.PageInfo)
	return result
}
