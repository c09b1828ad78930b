package message

import (
	"errors"
	"slices"
	"strings"
	"time"

	"facultyhub/internal/domain/session"
)

// Message statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

// Group selects a set of faculty recipients.
type Group string

// Recipient groups
const (
	GroupAll        Group = "all"
	GroupConfirmed  Group = "confirmed"
	GroupPending    Group = "pending"
	GroupSpeakers   Group = "speakers"
	GroupJudges     Group = "judges"
	GroupModerators Group = "moderators"
	GroupPanelists  Group = "panelists"
)

// Groups lists the selectable recipient groups.
var Groups = []Group{GroupAll, GroupConfirmed, GroupPending, GroupSpeakers, GroupJudges, GroupModerators, GroupPanelists}

// Domain errors
var (
	ErrEmptySenderID   = errors.New("sender ID is required")
	ErrEmptySubject    = errors.New("message subject is required")
	ErrEmptyBody       = errors.New("message body cannot be empty")
	ErrNoGroups        = errors.New("at least one recipient group is required")
	ErrInvalidGroup    = errors.New("unknown recipient group")
	ErrNoRecipients    = errors.New("recipient groups matched no faculty")
	ErrNotDraft        = errors.New("message is not a draft")
	ErrAlreadySent     = errors.New("message has already been sent")
	ErrScheduleInPast  = errors.New("scheduled time must be in the future")
	ErrNotDispatchable = errors.New("message is not scheduled")
)

// Message is a communication hub broadcast from an admin to faculty groups.
type Message struct {
	ID              string
	SenderID        string
	Subject         string
	Body            string // markdown
	Groups          []Group
	Status          string
	TotalRecipients int
	ReadCount       int
	ScheduledAt     time.Time
	SentAt          time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FailureReason   string
}

// Recipient is one resolved faculty address for a sent message.
type Recipient struct {
	MessageID string
	FacultyID string
	Name      string
	Email     string
	ReadAt    time.Time
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.SenderID == "" {
		return ErrEmptySenderID
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(m.Body) == "" {
		return ErrEmptyBody
	}
	if len(m.Groups) == 0 {
		return ErrNoGroups
	}
	for _, g := range m.Groups {
		if !g.Valid() {
			return ErrInvalidGroup
		}
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	return slices.Contains(Groups, g)
}

// ParseGroups converts raw group names, dropping duplicates.
// PRE: none
// POST: Returns known groups in input order or ErrInvalidGroup
func ParseGroups(raw []string) ([]Group, error) {
	var out []Group
	for _, r := range raw {
		g := Group(strings.ToLower(strings.TrimSpace(r)))
		if g == "" {
			continue
		}
		if !g.Valid() {
			return nil, ErrInvalidGroup
		}
		if !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// GroupStatus maps a status group to the session status it selects.
func GroupStatus(g Group) (session.Status, bool) {
	switch g {
	case GroupConfirmed:
		return session.StatusConfirmed, true
	case GroupPending:
		return session.StatusPending, true
	}
	return "", false
}

// GroupRole maps a role group to the session role it selects.
func GroupRole(g Group) (string, bool) {
	switch g {
	case GroupSpeakers:
		return session.RoleSpeaker, true
	case GroupJudges:
		return session.RoleJudge, true
	case GroupModerators:
		return session.RoleModerator, true
	case GroupPanelists:
		return session.RolePanelist, true
	}
	return "", false
}

// IsDraft returns true if the message has not been sent or scheduled.
// INVARIANT: Status field is not mutated
func (m *Message) IsDraft() bool {
	return m.Status == StatusDraft
}

// IsDue reports whether a scheduled message should be sent at now.
func (m *Message) IsDue(now time.Time) bool {
	return m.Status == StatusScheduled && !m.ScheduledAt.After(now)
}

// Schedule moves a draft to scheduled.
// PRE: Message is a draft; at is after now
// POST: Status is scheduled, ScheduledAt is set
func (m *Message) Schedule(at, now time.Time) error {
	if m.Status != StatusDraft {
		return ErrNotDraft
	}
	if !at.After(now) {
		return ErrScheduleInPast
	}
	m.Status = StatusScheduled
	m.ScheduledAt = at
	m.UpdatedAt = now
	return nil
}

// CanSend reports whether the message may be delivered now.
func (m *Message) CanSend() error {
	switch m.Status {
	case StatusDraft, StatusScheduled, StatusFailed:
		return nil
	case StatusSent:
		return ErrAlreadySent
	}
	return ErrNotDraft
}

// MarkSent records a successful delivery.
// PRE: CanSend() returned nil
// POST: Status is sent, SentAt and TotalRecipients are set
func (m *Message) MarkSent(at time.Time, recipients int) {
	m.Status = StatusSent
	m.SentAt = at
	m.UpdatedAt = at
	m.TotalRecipients = recipients
	m.FailureReason = ""
}

// MarkFailed records a failed delivery attempt.
// POST: Status is failed with the reason recorded
func (m *Message) MarkFailed(at time.Time, reason string) {
	m.Status = StatusFailed
	m.UpdatedAt = at
	m.FailureReason = reason
}

// ReadPercent is round(ReadCount/TotalRecipients*100), 0 with no recipients.
func (m *Message) ReadPercent() int {
	return session.Percent(m.ReadCount, m.TotalRecipients)
}

// IsRead returns true if the recipient has opened the message.
// INVARIANT: ReadAt field is not mutated
func (r *Recipient) IsRead() bool {
	return !r.ReadAt.IsZero()
}
