package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"facultyhub/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestStatementLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id, val FROM test WHERE id = ?", "SELECT test"},
		{"select count(*) from message_recipient where read_at is not null", "SELECT message_recipient"},
		{"INSERT INTO message (id) VALUES (?)", "INSERT message"},
		{"INSERT INTO audit_event(id) VALUES (?)", "INSERT audit_event(id"},
		{"UPDATE message_recipient SET read_at = ?", "UPDATE message_recipient"},
		{"DELETE FROM message WHERE id = ?", "DELETE message"},
		{"PRAGMA journal_mode=WAL", "PRAGMA"},
		{"", "?"},
	}
	for _, tt := range tests {
		if got := statementLabel(tt.query); got != tt.want {
			t.Errorf("statementLabel(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestTimedDB_RecordsEachOperation(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil || val != "hello" {
		t.Fatalf("QueryRowContext = (%q, %v)", val, err)
	}
	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if collector.TotalRecorded() != 4 {
		t.Errorf("TotalRecorded = %d, want 4", collector.TotalRecorded())
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	paths := map[string]int{}
	for _, s := range snap.SlowestQueries {
		paths[s.Path] = s.Count
	}
	if paths["SELECT test"] != 2 || paths["INSERT test"] != 1 || paths["BEGIN"] != 1 {
		t.Errorf("recorded statements = %v", paths)
	}
}

func TestTimedDB_NilCollector(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil, 10)
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO missing (id) VALUES (?)", "1"); err == nil {
		t.Error("expected error from missing table")
	}
	err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "nope").Scan(new(string))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("QueryRowContext error = %v, want sql.ErrNoRows", err)
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	for _, s := range snap.SlowestQueries {
		if s.Path == "INSERT missing" && s.Failures != 1 {
			t.Errorf("failed insert Failures = %d, want 1", s.Failures)
		}
		if s.Path == "SELECT test" && s.Failures != 0 {
			t.Errorf("no-rows select counted as failure")
		}
	}
}

func TestTimedDB_CancelledContext(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, perf.NewCollector(10), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tdb.QueryContext(ctx, "SELECT id FROM test"); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestTimedDB_ImplementsSQLDB(t *testing.T) {
	var _ SQLDB = NewTimedDB(openTestDB(t), nil, 0)
}

func TestTimedDB_ConcurrentOps(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var n int
			tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&n)
		}(i)
	}
	wg.Wait()

	if collector.TotalRecorded() != 20 {
		t.Errorf("TotalRecorded = %d, want 20", collector.TotalRecorded())
	}
}
