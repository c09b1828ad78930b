package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"facultyhub/internal/adapters/storage"
	domain "facultyhub/internal/domain/message"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ErrNotFound is returned when a message or recipient row does not exist.
var ErrNotFound = errors.New("message not found")

const messageColumns = `m.id, m.sender_id, m.subject, m.body, m.recipient_groups, m.status, m.total_recipients,
	(SELECT COUNT(*) FROM message_recipient r WHERE r.message_id = m.id AND r.read_at IS NOT NULL),
	m.scheduled_at, m.sent_at, m.failure_reason, m.created_at, m.updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Message by its ID, with its current read count.
// PRE: id is non-empty
// POST: Returns the message or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM message m WHERE m.id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Message{}, ErrNotFound
	}
	return m, err
}

// Save persists a Message to the database.
// PRE: message has been validated
// POST: Message is persisted (insert or update); ReadCount is derived, not stored
func (s *SQLiteStore) Save(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message (id, sender_id, subject, body, recipient_groups, status, total_recipients,
		   scheduled_at, sent_at, failure_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   subject=excluded.subject, body=excluded.body, recipient_groups=excluded.recipient_groups,
		   status=excluded.status, total_recipients=excluded.total_recipients,
		   scheduled_at=excluded.scheduled_at, sent_at=excluded.sent_at,
		   failure_reason=excluded.failure_reason, updated_at=excluded.updated_at`,
		m.ID, m.SenderID, m.Subject, m.Body, joinGroups(m.Groups), m.Status, m.TotalRecipients,
		nullTime(m.ScheduledAt), nullTime(m.SentAt), nullStr(m.FailureReason),
		m.CreatedAt.UTC().Format(timeLayout), updatedAt(m).UTC().Format(timeLayout))
	return err
}

// List returns the most recent messages first.
// PRE: limit > 0
// POST: Returns up to limit messages ordered by created_at desc
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM message m ORDER BY m.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListDue returns scheduled messages whose send time has passed.
// POST: Returns messages ordered by scheduled_at asc
func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM message m
		 WHERE m.status = ? AND m.scheduled_at <= ? ORDER BY m.scheduled_at`,
		domain.StatusScheduled, now.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// SaveRecipients records the resolved recipient list for a message.
// Existing rows keep their read state.
// PRE: message exists
// POST: One row per recipient
func (s *SQLiteStore) SaveRecipients(ctx context.Context, messageID string, recipients []domain.Recipient) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recipients tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range recipients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_recipient (message_id, faculty_id, name, email, read_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(message_id, faculty_id) DO UPDATE SET name=excluded.name, email=excluded.email`,
			messageID, r.FacultyID, r.Name, r.Email, nullTime(r.ReadAt)); err != nil {
			return fmt.Errorf("save recipient %s: %w", r.FacultyID, err)
		}
	}
	return tx.Commit()
}

// ListRecipients returns the recipients of a message ordered by name.
func (s *SQLiteStore) ListRecipients(ctx context.Context, messageID string) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, faculty_id, name, email, read_at FROM message_recipient
		 WHERE message_id = ? ORDER BY name, faculty_id`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var readAt sql.NullString
		if err := rows.Scan(&r.MessageID, &r.FacultyID, &r.Name, &r.Email, &readAt); err != nil {
			return nil, err
		}
		r.ReadAt = parseNullTime(readAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListForFaculty returns sent messages addressed to a faculty member, newest first.
// ReadCount is 1 when this faculty member has read the message.
func (s *SQLiteStore) ListForFaculty(ctx context.Context, facultyID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.sender_id, m.subject, m.body, m.recipient_groups, m.status, m.total_recipients,
		   CASE WHEN r.read_at IS NULL THEN 0 ELSE 1 END,
		   m.scheduled_at, m.sent_at, m.failure_reason, m.created_at, m.updated_at
		 FROM message m JOIN message_recipient r ON r.message_id = m.id
		 WHERE r.faculty_id = ? AND m.status = ?
		 ORDER BY m.sent_at DESC`, facultyID, domain.StatusSent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkRead stamps the first time a recipient opened a message.
// PRE: recipient row exists
// POST: read_at is set once; later calls leave it unchanged
func (s *SQLiteStore) MarkRead(ctx context.Context, messageID, facultyID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE message_recipient SET read_at = COALESCE(read_at, ?) WHERE message_id = ? AND faculty_id = ?`,
		at.UTC().Format(timeLayout), messageID, facultyID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (domain.Message, error) {
	var m domain.Message
	var groups string
	var scheduledAt, sentAt, failure sql.NullString
	var createdAt, updated string
	err := row.Scan(&m.ID, &m.SenderID, &m.Subject, &m.Body, &groups, &m.Status, &m.TotalRecipients,
		&m.ReadCount, &scheduledAt, &sentAt, &failure, &createdAt, &updated)
	if err != nil {
		return domain.Message{}, err
	}
	m.Groups = splitGroups(groups)
	m.ScheduledAt = parseNullTime(scheduledAt)
	m.SentAt = parseNullTime(sentAt)
	m.FailureReason = failure.String
	m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	m.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return m, nil
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func joinGroups(groups []domain.Group) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = string(g)
	}
	return strings.Join(parts, ",")
}

func splitGroups(raw string) []domain.Group {
	if raw == "" {
		return nil
	}
	var out []domain.Group
	for _, p := range strings.Split(raw, ",") {
		out = append(out, domain.Group(p))
	}
	return out
}

func updatedAt(m domain.Message) time.Time {
	if m.UpdatedAt.IsZero() {
		return m.CreatedAt
	}
	return m.UpdatedAt
}

func parseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, ns.String)
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
