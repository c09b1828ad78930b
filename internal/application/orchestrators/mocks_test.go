package orchestrators

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	emailAdapter "facultyhub/internal/adapters/email"
	"facultyhub/internal/adapters/records"
	"facultyhub/internal/adapters/records/memory"
	"facultyhub/internal/domain/audit"
	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

var testNow = time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// --- Mock audit store ---

type mockAuditStore struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

// Save records the event unless err is set.
// PRE: none
// POST: Event appended to events
func (m *mockAuditStore) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditStore) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Action
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

// --- Records wrapper that fails the re-read after a write ---

type refreshFailingRecords struct {
	*memory.Backend
	wrote bool
}

// SetSessionStatus writes through and arms the read failure.
func (r *refreshFailingRecords) SetSessionStatus(ctx context.Context, id string, s session.Status) error {
	if err := r.Backend.SetSessionStatus(ctx, id, s); err != nil {
		return err
	}
	r.wrote = true
	return nil
}

// ListSessions fails once a write has happened.
func (r *refreshFailingRecords) ListSessions(ctx context.Context) ([]session.Session, error) {
	if r.wrote {
		return nil, records.ErrTransport
	}
	return r.Backend.ListSessions(ctx)
}

// --- Mock message store ---

type mockMessageStore struct {
	messages   map[string]message.Message
	recipients map[string][]message.Recipient
	reads      map[string]time.Time
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{
		messages:   make(map[string]message.Message),
		recipients: make(map[string][]message.Recipient),
		reads:      make(map[string]time.Time),
	}
}

// GetByID retrieves a mock message by ID.
// PRE: id is non-empty
// POST: Returns the message or an error
func (m *mockMessageStore) GetByID(_ context.Context, id string) (message.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return message.Message{}, errors.New("not found")
	}
	return msg, nil
}

// Save persists a mock message.
// PRE: msg has an ID
// POST: Message stored in map
func (m *mockMessageStore) Save(_ context.Context, msg message.Message) error {
	m.messages[msg.ID] = msg
	return nil
}

// ListDue returns scheduled messages due at now, oldest first.
func (m *mockMessageStore) ListDue(_ context.Context, now time.Time) ([]message.Message, error) {
	var out []message.Message
	for _, msg := range m.messages {
		if msg.IsDue(now) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// SaveRecipients stores the recipient list for a message.
func (m *mockMessageStore) SaveRecipients(_ context.Context, id string, rs []message.Recipient) error {
	m.recipients[id] = rs
	return nil
}

// MarkRead keeps the first read time per recipient.
func (m *mockMessageStore) MarkRead(_ context.Context, messageID, facultyID string, at time.Time) error {
	key := messageID + "/" + facultyID
	if _, ok := m.reads[key]; !ok {
		m.reads[key] = at
	}
	return nil
}

// --- Failing email sender ---

type failingSender struct{}

// Send always fails.
func (failingSender) Send(context.Context, emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	return emailAdapter.SendResult{}, errors.New("provider unavailable")
}

// SendBatch always fails.
func (failingSender) SendBatch(context.Context, []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	return nil, errors.New("provider unavailable")
}

// partialSender accepts the first n requests of a batch, then fails.
type partialSender struct {
	*emailAdapter.NoopSender
	n int
}

// SendBatch delivers up to n requests and reports an error for the rest.
func (s partialSender) SendBatch(ctx context.Context, reqs []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	results, _ := s.NoopSender.SendBatch(ctx, reqs[:min(s.n, len(reqs))])
	return results, errors.New("provider rejected chunk")
}

// --- Flaky message store ---

// flakyMessageStore fails selected writes of the wrapped store.
type flakyMessageStore struct {
	*mockMessageStore
	failRecipients bool
	failSentSaves  int // saves of a sent message to fail before succeeding
}

// Save fails while failSentSaves is positive and msg is sent.
func (s *flakyMessageStore) Save(ctx context.Context, msg message.Message) error {
	if msg.Status == message.StatusSent && s.failSentSaves > 0 {
		s.failSentSaves--
		return errors.New("database is locked")
	}
	return s.mockMessageStore.Save(ctx, msg)
}

// SaveRecipients fails when failRecipients is set.
func (s *flakyMessageStore) SaveRecipients(ctx context.Context, id string, rs []message.Recipient) error {
	if s.failRecipients {
		return errors.New("disk full")
	}
	return s.mockMessageStore.SaveRecipients(ctx, id, rs)
}
