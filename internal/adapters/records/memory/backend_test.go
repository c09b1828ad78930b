package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/session"
)

func TestNewSeeded_SatisfiesInvariants(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	sessions, err := b.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			t.Errorf("seed session %s invalid: %v", s.ID, err)
		}
	}
	fac, _ := b.ListFaculty(ctx)
	for _, f := range fac {
		if err := f.Validate(); err != nil {
			t.Errorf("seed faculty %s invalid: %v", f.ID, err)
		}
	}
	reqs, _ := b.ListChangeRequests(ctx)
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			t.Errorf("seed request %s invalid: %v", r.ID, err)
		}
	}
}

func TestListSessions_ReturnsCopies(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()
	first, _ := b.ListSessions(ctx)
	first[0].FacultyIDs[0] = "mutated"
	first[0].Status = session.StatusDeclined

	again, _ := b.ListSessions(ctx)
	if again[0].FacultyIDs[0] == "mutated" || again[0].Status == session.StatusDeclined {
		t.Error("caller mutation leaked into backend")
	}
}

func TestSetSessionStatus(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	if err := b.SetSessionStatus(ctx, "recSES002", session.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	all, _ := b.ListSessions(ctx)
	if s, _ := session.FindByID(all, "recSES002"); s.Status != session.StatusConfirmed {
		t.Errorf("status = %q", s.Status)
	}

	// No guard at this layer: a declined session can be reset to pending.
	if err := b.SetSessionStatus(ctx, "recSES003", session.StatusPending); err != nil {
		t.Errorf("raw write rejected: %v", err)
	}

	err := b.SetSessionStatus(ctx, "missing", session.StatusConfirmed)
	if !records.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestSetFailure(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()
	boom := fmt.Errorf("%w: connection refused", records.ErrTransport)

	b.SetFailure(records.CollectionSessions, boom)
	if _, err := b.ListSessions(ctx); !errors.Is(err, records.ErrTransport) {
		t.Errorf("ListSessions err = %v", err)
	}
	if err := b.SetSessionStatus(ctx, "recSES002", session.StatusConfirmed); !errors.Is(err, boom) {
		t.Errorf("SetSessionStatus err = %v", err)
	}
	if _, err := b.ListFaculty(ctx); err != nil {
		t.Errorf("other collections should still work: %v", err)
	}

	b.SetFailure(records.CollectionSessions, nil)
	if _, err := b.ListSessions(ctx); err != nil {
		t.Errorf("cleared failure still returned: %v", err)
	}
}

func TestChangeRequests_CreateAndDecide(t *testing.T) {
	b := New()
	now := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return now })
	ctx := context.Background()

	created, err := b.CreateChangeRequest(ctx, changerequest.Request{
		FacultyID: "f1", Type: changerequest.TypeOther, Description: "x", Status: changerequest.StatusApproved,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Status != changerequest.StatusPending || !created.SubmittedAt.Equal(now) || created.Priority != changerequest.PriorityMedium {
		t.Errorf("created = %+v", created)
	}

	created.Reject("admin", "no slot", now)
	if err := b.SetChangeRequestDecision(ctx, created); err != nil {
		t.Fatal(err)
	}
	all, _ := b.ListChangeRequests(ctx)
	if len(all) != 1 || all[0].Status != changerequest.StatusRejected || all[0].AdminNotes != "no slot" {
		t.Errorf("stored = %+v", all)
	}

	if err := b.SetChangeRequestDecision(ctx, changerequest.Request{ID: "nope"}); !records.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCancelledContext(t *testing.T) {
	b := NewSeeded()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.ListFaculty(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !errors.Is(err, records.ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.ListSessions(ctx)
		}()
		go func(i int) {
			defer wg.Done()
			st := session.StatusConfirmed
			if i%2 == 0 {
				st = session.StatusDeclined
			}
			b.SetSessionStatus(ctx, "recSES004", st)
		}(i)
	}
	wg.Wait()
}
