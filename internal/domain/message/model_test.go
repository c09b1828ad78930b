package message_test

import (
	"errors"
	"testing"
	"time"

	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

func validMessage() message.Message {
	return message.Message{
		ID:        "m1",
		SenderID:  "admin",
		Subject:   "Schedule update",
		Body:      "Hall B moves to **10:00**.",
		Groups:    []message.Group{message.GroupAll},
		Status:    message.StatusDraft,
		CreatedAt: time.Now(),
	}
}

// TestMessage_Validate tests validation of Message.
func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *message.Message)
		want   error
	}{
		{"valid", func(m *message.Message) {}, nil},
		{"empty sender", func(m *message.Message) { m.SenderID = "" }, message.ErrEmptySenderID},
		{"blank subject", func(m *message.Message) { m.Subject = " " }, message.ErrEmptySubject},
		{"empty body", func(m *message.Message) { m.Body = "" }, message.ErrEmptyBody},
		{"no groups", func(m *message.Message) { m.Groups = nil }, message.ErrNoGroups},
		{"unknown group", func(m *message.Message) { m.Groups = []message.Group{"sponsors"} }, message.ErrInvalidGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			tt.mutate(&m)
			if got := m.Validate(); !errors.Is(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseGroups(t *testing.T) {
	got, err := message.ParseGroups([]string{"Speakers", "pending", "speakers", ""})
	if err != nil {
		t.Fatalf("ParseGroups() error = %v", err)
	}
	if len(got) != 2 || got[0] != message.GroupSpeakers || got[1] != message.GroupPending {
		t.Errorf("ParseGroups() = %v, want [speakers pending]", got)
	}
	if _, err := message.ParseGroups([]string{"vips"}); !errors.Is(err, message.ErrInvalidGroup) {
		t.Errorf("ParseGroups(vips) error = %v, want ErrInvalidGroup", err)
	}
}

func TestGroupMappings(t *testing.T) {
	if st, ok := message.GroupStatus(message.GroupConfirmed); !ok || st != session.StatusConfirmed {
		t.Errorf("GroupStatus(confirmed) = (%q, %v)", st, ok)
	}
	if _, ok := message.GroupStatus(message.GroupJudges); ok {
		t.Error("GroupStatus(judges) should not map to a status")
	}
	if role, ok := message.GroupRole(message.GroupModerators); !ok || role != session.RoleModerator {
		t.Errorf("GroupRole(moderators) = (%q, %v)", role, ok)
	}
}

func TestMessage_Lifecycle(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	m := validMessage()
	if err := m.Schedule(now.Add(-time.Minute), now); !errors.Is(err, message.ErrScheduleInPast) {
		t.Fatalf("Schedule(past) = %v, want ErrScheduleInPast", err)
	}
	if err := m.Schedule(now.Add(time.Hour), now); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if m.IsDue(now) {
		t.Error("message should not be due before ScheduledAt")
	}
	if !m.IsDue(now.Add(time.Hour)) {
		t.Error("message should be due at ScheduledAt")
	}
	if err := m.Schedule(now.Add(2*time.Hour), now); !errors.Is(err, message.ErrNotDraft) {
		t.Errorf("rescheduling via Schedule = %v, want ErrNotDraft", err)
	}

	if err := m.CanSend(); err != nil {
		t.Fatalf("CanSend() on scheduled = %v", err)
	}
	m.MarkSent(now.Add(time.Hour), 12)
	if m.Status != message.StatusSent || m.TotalRecipients != 12 {
		t.Errorf("after MarkSent: %+v", m)
	}
	if err := m.CanSend(); !errors.Is(err, message.ErrAlreadySent) {
		t.Errorf("CanSend() after send = %v, want ErrAlreadySent", err)
	}
}

func TestMessage_MarkFailedAllowsRetry(t *testing.T) {
	m := validMessage()
	m.MarkFailed(time.Now(), "provider down")
	if m.Status != message.StatusFailed || m.FailureReason != "provider down" {
		t.Errorf("after MarkFailed: %+v", m)
	}
	if err := m.CanSend(); err != nil {
		t.Errorf("CanSend() after failure = %v, want nil", err)
	}
}

func TestMessage_ReadPercent(t *testing.T) {
	m := message.Message{ReadCount: 2, TotalRecipients: 3}
	if got := m.ReadPercent(); got != 67 {
		t.Errorf("ReadPercent() = %d, want 67", got)
	}
	empty := message.Message{}
	if got := empty.ReadPercent(); got != 0 {
		t.Errorf("ReadPercent() with no recipients = %d, want 0", got)
	}
}
