package projections

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/adapters/records/memory"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

func TestQueryFacultyDashboard_Seeded(t *testing.T) {
	res, err := QueryFacultyDashboard(context.Background(), FacultyDashboardQuery{Email: " Asha.Rao@example.org"}, FacultyDashboardDeps{Records: memory.NewSeeded()})
	if err != nil {
		t.Fatalf("QueryFacultyDashboard: %v", err)
	}
	if res.FetchFailed {
		t.Fatal("FetchFailed on healthy backend")
	}
	if res.Faculty.ID != "recFAC001" || len(res.Sessions) != 3 {
		t.Fatalf("faculty=%s sessions=%d", res.Faculty.ID, len(res.Sessions))
	}
	want := session.Counts{Total: 3, Confirmed: 1, Pending: 1, Declined: 1}
	if res.Counts != want {
		t.Errorf("Counts = %+v, want %+v", res.Counts, want)
	}
	if res.ConfirmationRate != 33 || res.ResponseRate != 67 || res.Halls != 2 {
		t.Errorf("rates %d/%d halls %d", res.ConfirmationRate, res.ResponseRate, res.Halls)
	}
	if len(res.Pending) != 1 || res.Pending[0].ID != "recSES002" {
		t.Errorf("Pending = %+v", res.Pending)
	}
}

// One faculty, one pending session; confirming it shows up on the next read.
func TestQueryFacultyDashboard_ConfirmReflectedOnReread(t *testing.T) {
	backend := memory.New()
	backend.AddFaculty(faculty.Faculty{ID: "rec1", Email: "a@x.com"})
	backend.AddSessions(session.Session{ID: "s1", FacultyIDs: []string{"rec1"}, Status: session.StatusPending})
	deps := FacultyDashboardDeps{Records: backend}

	res, err := QueryFacultyDashboard(context.Background(), FacultyDashboardQuery{Email: "a@x.com"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sessions) != 1 || len(res.Pending) != 1 || res.Pending[0].ID != "s1" {
		t.Fatalf("before: sessions=%+v pending=%+v", res.Sessions, res.Pending)
	}

	if err := backend.SetSessionStatus(context.Background(), "s1", session.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	res, err = QueryFacultyDashboard(context.Background(), FacultyDashboardQuery{Email: "a@x.com"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sessions[0].Status != session.StatusConfirmed || len(res.Pending) != 0 {
		t.Errorf("after: %+v", res.Sessions)
	}
}

func TestQueryFacultyDashboard_EmptyFacultyIsNotFound(t *testing.T) {
	for _, email := range []string{"a@x.com", "anyone@example.org"} {
		_, err := QueryFacultyDashboard(context.Background(), FacultyDashboardQuery{Email: email}, FacultyDashboardDeps{Records: memory.New()})
		if !errors.Is(err, ErrFacultyNotFound) {
			t.Errorf("%s: err = %v, want ErrFacultyNotFound", email, err)
		}
	}
}

func TestQueryFacultyDashboard_FetchFailedIsNotNotFound(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		err        error
	}{
		{"faculty transport", records.CollectionFaculty, records.ErrTransport},
		{"sessions 500", records.CollectionSessions, &records.StatusError{Collection: records.CollectionSessions, Code: http.StatusInternalServerError}},
		{"sessions decode", records.CollectionSessions, records.ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := memory.NewSeeded()
			backend.SetFailure(tt.collection, tt.err)
			res, err := QueryFacultyDashboard(context.Background(), FacultyDashboardQuery{Email: "asha.rao@example.org"}, FacultyDashboardDeps{Records: backend})
			if err != nil {
				t.Fatalf("err = %v, want nil with FetchFailed", err)
			}
			if !res.FetchFailed || len(res.FailedCollections) != 1 || res.FailedCollections[0] != tt.collection {
				t.Errorf("result = %+v", res)
			}
			if res.Sessions != nil {
				t.Error("failed fetch reported sessions")
			}
		})
	}
}
