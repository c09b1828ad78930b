package projections

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// Bucket is one labelled count in a breakdown.
type Bucket struct {
	Label   string
	Count   int
	Percent int
}

// HallStat summarises the sessions in one hall.
type HallStat struct {
	Hall      string
	Total     int
	Confirmed int
	Pending   int
	Declined  int
}

// AnalyticsDeps holds dependencies for the analytics projection.
type AnalyticsDeps struct {
	Records interface {
		FacultyReader
		SessionReader
	}
}

// AnalyticsResult carries the admin analytics breakdowns.
type AnalyticsResult struct {
	ByStatus []Bucket
	ByRole   []Bucket
	ByCity   []Bucket
	ByHall   []HallStat

	FacultyFailed  bool
	SessionsFailed bool
}

// QueryAnalytics builds status, role, city and hall breakdowns.
// PRE: none
// POST: Buckets are sorted by count desc, then label; percentages are of the
// collection total
func QueryAnalytics(ctx context.Context, deps AnalyticsDeps) AnalyticsResult {
	var (
		facs     records.Result[faculty.Faculty]
		sessions records.Result[session.Session]
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
	g.Wait()

	result := AnalyticsResult{FacultyFailed: facs.Failed(), SessionsFailed: sessions.Failed()}
	if facs.Failed() {
		logOverviewFailure(records.CollectionFaculty, facs.Err)
	}
	if sessions.Failed() {
		logOverviewFailure(records.CollectionSessions, sessions.Err)
	}

	total := len(sessions.Records)
	statusCounts := make(map[string]int)
	roleCounts := make(map[string]int)
	halls := make(map[string]*HallStat)
	for _, s := range sessions.Records {
		s = s.Normalize()
		statusCounts[s.Status.Label()]++
		roleCounts[s.Role]++

		name := strings.TrimSpace(s.Hall)
		if name == "" {
			continue
		}
		h, ok := halls[name]
		if !ok {
			h = &HallStat{Hall: name}
			halls[name] = h
		}
		h.Total++
		switch s.Status {
		case session.StatusConfirmed:
			h.Confirmed++
		case session.StatusPending:
			h.Pending++
		case session.StatusDeclined:
			h.Declined++
		}
	}
	// Every status is listed, including empty ones.
	for _, st := range session.Statuses {
		result.ByStatus = append(result.ByStatus, Bucket{Label: st.Label(), Count: statusCounts[st.Label()], Percent: session.Percent(statusCounts[st.Label()], total)})
	}
	result.ByRole = buckets(roleCounts, total)

	cityCounts := make(map[string]int)
	for _, f := range facs.Records {
		city := strings.TrimSpace(f.City)
		if city == "" {
			city = "Unknown"
		}
		cityCounts[city]++
	}
	result.ByCity = buckets(cityCounts, len(facs.Records))

	for _, h := range halls {
		result.ByHall = append(result.ByHall, *h)
	}
	slices.SortFunc(result.ByHall, func(a, b HallStat) int {
		return cmp.Compare(a.Hall, b.Hall)
	})
	return result
}

func buckets(counts map[string]int, total int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		out = append(out, Bucket{Label: label, Count: n, Percent: session.Percent(n, total)})
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
