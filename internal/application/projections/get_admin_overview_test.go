package projections

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/adapters/records/memory"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

func sessionsWithStatuses(counts map[session.Status]int) []session.Session {
	var out []session.Session
	for st, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, session.Session{ID: fmt.Sprintf("%s-%d", st, i), FacultyIDs: []string{"rec1"}, Status: st, Hall: "Hall A"})
		}
	}
	return out
}

func TestQueryAdminOverview_Rates(t *testing.T) {
	backend := memory.New()
	backend.AddSessions(sessionsWithStatuses(map[session.Status]int{
		session.StatusConfirmed: 10,
		session.StatusPending:   5,
		session.StatusDeclined:  5,
	})...)

	res := QueryAdminOverview(context.Background(), AdminOverviewDeps{Records: backend})
	if res.Sessions.Total != 20 || res.ConfirmationRate != 50 || res.ResponseRate != 75 {
		t.Errorf("total=%d confirmation=%d response=%d, want 20/50/75", res.Sessions.Total, res.ConfirmationRate, res.ResponseRate)
	}
	if res.Degraded() {
		t.Error("Degraded on healthy backend")
	}
}

func TestQueryAdminOverview_Seeded(t *testing.T) {
	res := QueryAdminOverview(context.Background(), AdminOverviewDeps{Records: memory.NewSeeded()})
	if res.TotalFaculty != 4 || res.ActiveFaculty != 3 {
		t.Errorf("faculty %d/%d", res.ActiveFaculty, res.TotalFaculty)
	}
	want := session.Counts{Total: 6, Confirmed: 2, Pending: 2, Declined: 1, Unassigned: 1}
	if res.Sessions != want {
		t.Errorf("Sessions = %+v", res.Sessions)
	}
	if res.Halls != 3 || res.ChangeRequests.Pending != 1 || res.ChangeRequests.HighPending != 1 {
		t.Errorf("halls=%d requests=%+v", res.Halls, res.ChangeRequests)
	}
}

func TestQueryAdminOverview_SessionsFailure(t *testing.T) {
	backend := memory.NewSeeded()
	backend.SetFailure(records.CollectionSessions, &records.StatusError{Collection: records.CollectionSessions, Code: http.StatusInternalServerError})

	res := QueryAdminOverview(context.Background(), AdminOverviewDeps{Records: backend})
	if !res.SessionsFailed || res.FacultyFailed || res.ChangeRequestsFailed {
		t.Errorf("flags = %v/%v/%v", res.FacultyFailed, res.SessionsFailed, res.ChangeRequestsFailed)
	}
	if res.Sessions != (session.Counts{}) || res.ConfirmationRate != 0 || res.ResponseRate != 0 {
		t.Errorf("failed sessions should give zero counts, got %+v", res.Sessions)
	}
	// The other reads still populate.
	if res.TotalFaculty != 4 || res.ChangeRequests.Total != 2 {
		t.Errorf("faculty=%d requests=%d", res.TotalFaculty, res.ChangeRequests.Total)
	}
	if !res.Degraded() {
		t.Error("Degraded = false")
	}
}

func TestQueryAdminOverview_AllFail(t *testing.T) {
	backend := memory.NewSeeded()
	for _, c := range []string{records.CollectionFaculty, records.CollectionSessions, records.CollectionChangeRequests} {
		backend.SetFailure(c, records.ErrTransport)
	}
	res := QueryAdminOverview(context.Background(), AdminOverviewDeps{Records: backend})
	if !res.FacultyFailed || !res.SessionsFailed || !res.ChangeRequestsFailed {
		t.Errorf("flags = %+v", res)
	}
	if res.TotalFaculty != 0 || res.Sessions.Total != 0 || res.ChangeRequests.Total != 0 {
		t.Errorf("counts = %+v", res)
	}
}

func TestQueryAdminOverview_BlankStatusNotActive(t *testing.T) {
	backend := memory.New()
	backend.AddFaculty(
		faculty.Faculty{ID: "recA", Email: "a@example.org", Status: faculty.StatusActive},
		faculty.Faculty{ID: "recB", Email: "b@example.org"},
	)

	res := QueryAdminOverview(context.Background(), AdminOverviewDeps{Records: backend})
	if res.TotalFaculty != 2 || res.ActiveFaculty != 1 {
		t.Errorf("active %d of %d, want 1 of 2", res.ActiveFaculty, res.TotalFaculty)
	}
}
