package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "facultyhub/internal/adapters/email"
	"facultyhub/internal/adapters/metrics"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/audit"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

// MessageStore defines the store interface needed by the communication hub.
type MessageStore interface {
	GetByID(ctx context.Context, id string) (message.Message, error)
	Save(ctx context.Context, m message.Message) error
	ListDue(ctx context.Context, now time.Time) ([]message.Message, error)
	SaveRecipients(ctx context.Context, messageID string, recipients []message.Recipient) error
	MarkRead(ctx context.Context, messageID, facultyID string, at time.Time) error
}

// RecipientRecords reads the collections recipient groups are resolved against.
type RecipientRecords interface {
	ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
	ListSessions(ctx context.Context) ([]session.Session, error)
}

// Compose actions
const (
	ActionDraft    = "draft"
	ActionSend     = "send"
	ActionSchedule = "schedule"
)

var (
	ErrInvalidAction   = errors.New("action must be draft, send or schedule")
	ErrMissingSchedule = errors.New("a scheduled time is required")
)

// markdown renders hub message bodies. Raw HTML in a body is omitted.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts a message body to HTML.
func RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ResolveRecipients expands recipient groups against the current faculty and
// session lists. Each faculty appears at most once, in faculty list order, and
// only faculty with an email address are included.
func ResolveRecipients(all []faculty.Faculty, sessions []session.Session, groups []message.Group) []message.Recipient {
	selected := make(map[string]bool)
	for _, g := range groups {
		if g == message.GroupAll {
			for _, f := range all {
				selected[f.ID] = true
			}
			continue
		}
		status, byStatus := message.GroupStatus(g)
		role, byRole := message.GroupRole(g)
		for _, s := range sessions {
			s = s.Normalize()
			if (byStatus && s.Status == status) || (byRole && s.Role == role) {
				for _, id := range s.FacultyIDs {
					selected[id] = true
				}
			}
		}
	}

	var out []message.Recipient
	for _, f := range all {
		if !selected[f.ID] || strings.TrimSpace(f.Email) == "" {
			continue
		}
		out = append(out, message.Recipient{FacultyID: f.ID, Name: f.DisplayName(), Email: faculty.NormalizeEmail(f.Email)})
		delete(selected, f.ID)
	}
	return out
}

// ErrDeliveredNotRecorded means the provider accepted a message but the
// store could not record it.
var ErrDeliveredNotRecorded = errors.New("message delivered but not recorded")

// DeliverDeps holds what delivery needs; shared by send-now and the dispatcher.
type DeliverDeps struct {
	Records     RecipientRecords
	Store       MessageStore
	EmailSender emailAdapter.Sender
	Metrics     *metrics.Recorder
	Now         func() time.Time
	FromAddress string
	ReplyTo     string
	Unrecorded  *Unrecorded // optional; the dispatch worker always sets one
}

// Unrecorded holds delivered messages whose sent state failed to save.
// Dispatch runs store them again instead of resending. Methods are safe on
// a nil receiver.
type Unrecorded struct {
	mu   sync.Mutex
	msgs map[string]message.Message
}

// NewUnrecorded creates an empty set.
func NewUnrecorded() *Unrecorded {
	return &Unrecorded{msgs: make(map[string]message.Message)}
}

func (u *Unrecorded) add(m message.Message) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.msgs[m.ID] = m
	u.mu.Unlock()
}

func (u *Unrecorded) take(id string) (message.Message, bool) {
	if u == nil {
		return message.Message{}, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.msgs[id]
	delete(u.msgs, id)
	return m, ok
}

// Len returns how many messages are waiting to be recorded.
func (u *Unrecorded) Len() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.msgs)
}

// deliver resolves recipients and sends m. A failure to read records or an
// empty recipient set leaves m untouched; a provider failure marks it failed.
// Once the provider has accepted mail, m never goes back to a sendable state:
// a store failure after that returns ErrDeliveredNotRecorded.
// PRE: m is saved and CanSend() returns nil
// POST: On success m is sent with TotalRecipients set and recipients stored
func deliver(ctx context.Context, m *message.Message, deps DeliverDeps) error {
	facs, err := deps.Records.ListFaculty(ctx)
	if err != nil {
		return fmt.Errorf("load faculty: %w", err)
	}
	sessions, err := deps.Records.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	recipients := ResolveRecipients(facs, sessions, m.Groups)
	if len(recipients) == 0 {
		return message.ErrNoRecipients
	}

	html, err := RenderMarkdown(m.Body)
	if err != nil {
		return err
	}

	reqs := make([]emailAdapter.SendRequest, 0, len(recipients))
	for i := range recipients {
		recipients[i].MessageID = m.ID
		reqs = append(reqs, emailAdapter.SendRequest{
			To:      []string{recipients[i].Email},
			From:    deps.FromAddress,
			Subject: m.Subject,
			HTML:    html,
			Text:    m.Body,
			ReplyTo: deps.ReplyTo,
			Tags:    map[string]string{"message_id": m.ID},
		})
	}

	results, err := deps.EmailSender.SendBatch(ctx, reqs)
	if err != nil {
		return recordSendFailure(ctx, m, recipients, min(len(results), len(recipients)), err, deps)
	}

	m.MarkSent(deps.Now(), len(recipients))
	deps.Metrics.AddMessagesSent(len(recipients))
	if err := deps.Store.Save(ctx, *m); err != nil {
		deps.Unrecorded.add(*m)
		slog.Error("message_event", "event", "sent_state_unsaved", "message_id", m.ID, "error", err)
		return fmt.Errorf("%w: save message: %v", ErrDeliveredNotRecorded, err)
	}
	if err := deps.Store.SaveRecipients(ctx, m.ID, recipients); err != nil {
		slog.Error("message_event", "event", "recipients_unsaved", "message_id", m.ID, "error", err)
		return fmt.Errorf("%w: save recipients: %v", ErrDeliveredNotRecorded, err)
	}

	slog.Info("message_event", "event", "message_sent", "message_id", m.ID, "recipient_count", len(recipients))
	return nil
}

// recordSendFailure marks m failed after a provider error. Recipients whose
// mail the provider accepted before the error are kept so they still see the
// message in their inbox.
// PRE: accepted <= len(recipients)
func recordSendFailure(ctx context.Context, m *message.Message, recipients []message.Recipient, accepted int, sendErr error, deps DeliverDeps) error {
	reason := sendErr.Error()
	if accepted > 0 {
		reason = fmt.Sprintf("delivered to %d of %d recipients: %v", accepted, len(recipients), sendErr)
		m.TotalRecipients = accepted
		deps.Metrics.AddMessagesSent(accepted)
		if err := deps.Store.SaveRecipients(ctx, m.ID, recipients[:accepted]); err != nil {
			slog.Error("message_event", "event", "recipients_unsaved", "message_id", m.ID, "error", err)
		}
	}
	m.MarkFailed(deps.Now(), reason)
	if err := deps.Store.Save(ctx, *m); err != nil {
		if accepted > 0 {
			deps.Unrecorded.add(*m)
		}
		slog.Error("message_event", "event", "save_failed", "message_id", m.ID, "error", err)
	}
	return fmt.Errorf("send message: %w", sendErr)
}

// --- Compose Message ---

// ComposeMessageInput carries a compose form submission.
type ComposeMessageInput struct {
	MessageID  string // empty for a new message, set to update a draft
	SenderID   string
	Subject    string
	Body       string
	Groups     []string
	Action     string
	ScheduleAt time.Time
	IPAddress  string
}

// ComposeMessageDeps holds dependencies for ComposeMessage.
type ComposeMessageDeps struct {
	DeliverDeps
	AuditStore AuditStore
	GenerateID func() string
}

// ExecuteComposeMessage saves a draft, sends it now, or schedules it.
// PRE: SenderID is the authenticated admin
// POST: The message is stored with status draft, sent, scheduled or failed
// INVARIANT: Only drafts can be edited
func ExecuteComposeMessage(ctx context.Context, input ComposeMessageInput, deps ComposeMessageDeps) (message.Message, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action == "" {
		action = ActionDraft
	}
	if action != ActionDraft && action != ActionSend && action != ActionSchedule {
		return message.Message{}, ErrInvalidAction
	}
	groups, err := message.ParseGroups(input.Groups)
	if err != nil {
		return message.Message{}, err
	}

	now := deps.Now()
	var m message.Message
	if input.MessageID != "" {
		existing, err := deps.Store.GetByID(ctx, input.MessageID)
		if err != nil {
			return message.Message{}, err
		}
		if !existing.IsDraft() {
			return message.Message{}, message.ErrNotDraft
		}
		m = existing
	} else {
		m = message.Message{
			ID:        deps.GenerateID(),
			SenderID:  input.SenderID,
			Status:    message.StatusDraft,
			CreatedAt: now,
		}
	}
	m.Subject = strings.TrimSpace(input.Subject)
	m.Body = input.Body
	m.Groups = groups
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return message.Message{}, err
	}

	auditAction := audit.ActionDraft
	switch action {
	case ActionSchedule:
		if input.ScheduleAt.IsZero() {
			return message.Message{}, ErrMissingSchedule
		}
		if err := m.Schedule(input.ScheduleAt, now); err != nil {
			return message.Message{}, err
		}
		auditAction = audit.ActionSchedule
	case ActionSend:
		auditAction = audit.ActionSend
	}

	if err := deps.Store.Save(ctx, m); err != nil {
		return message.Message{}, err
	}
	if action == ActionSend {
		if err := deliver(ctx, &m, deps.DeliverDeps); err != nil {
			slog.Warn("message_event", "event", "send_failed", "message_id", m.ID, "error", err)
			return m, err
		}
	}

	slog.Info("message_event", "event", "message_composed", "message_id", m.ID, "action", action, "status", m.Status)
	recordAudit(ctx, deps.AuditStore, audit.NewEvent(input.SenderID, account.RoleAdmin, audit.CategoryMessage, auditAction, now).
		WithResource("message", m.ID).
		WithDescription(m.Subject).
		WithIP(input.IPAddress))
	return m, nil
}

// --- Test Send ---

// TestSendMessageInput carries input for previewing a message in one inbox.
type TestSendMessageInput struct {
	MessageID   string
	TestAddress string
}

// ExecuteTestSendMessage sends a stored message to a single address.
// PRE: MessageID exists; TestAddress is a valid email
// POST: Exactly one email is delivered; the message is unchanged
func ExecuteTestSendMessage(ctx context.Context, input TestSendMessageInput, deps DeliverDeps) error {
	if err := faculty.ValidateEmail(input.TestAddress); err != nil {
		return err
	}
	m, err := deps.Store.GetByID(ctx, input.MessageID)
	if err != nil {
		return err
	}
	html, err := RenderMarkdown(m.Body)
	if err != nil {
		return err
	}
	_, err = deps.EmailSender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{input.TestAddress},
		From:    deps.FromAddress,
		Subject: "[TEST] " + m.Subject,
		HTML:    html,
		Text:    m.Body,
		ReplyTo: deps.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("send test message: %w", err)
	}
	slog.Info("message_event", "event", "test_sent", "message_id", m.ID)
	return nil
}

// --- Mark Read ---

// MarkMessageReadInput identifies the reader by their login email.
type MarkMessageReadInput struct {
	MessageID    string
	FacultyEmail string
}

// MarkMessageReadDeps holds dependencies for MarkMessageRead.
type MarkMessageReadDeps struct {
	Records interface {
		ListFaculty(ctx context.Context) ([]faculty.Faculty, error)
	}
	Store MessageStore
	Now   func() time.Time
}

// ExecuteMarkMessageRead records that a faculty member opened a message.
// PRE: The message was sent to the faculty
// POST: The recipient's ReadAt is set; a repeat call keeps the first read time
func ExecuteMarkMessageRead(ctx context.Context, input MarkMessageReadInput, deps MarkMessageReadDeps) error {
	all, err := deps.Records.ListFaculty(ctx)
	if err != nil {
		return fmt.Errorf("load faculty: %w", err)
	}
	fac, ok := faculty.FindByEmail(all, input.FacultyEmail)
	if !ok {
		return faculty.ErrNotFound
	}
	return deps.Store.MarkRead(ctx, input.MessageID, fac.ID, deps.Now())
}
