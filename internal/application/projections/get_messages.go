package projections

import (
	"context"
	"fmt"
	"time"

	"facultyhub/internal/adapters/records"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

// MessageReader lists stored hub messages.
type MessageReader interface {
	List(ctx context.Context, limit int) ([]message.Message, error)
	ListForFaculty(ctx context.Context, facultyID string) ([]message.Message, error)
}

// MessageHistoryDeps holds dependencies for the message history projection.
type MessageHistoryDeps struct {
	Store MessageReader
}

// MessageRow is a stored message with its read rate.
type MessageRow struct {
	Message     message.Message
	ReadPercent int
}

// MessageHistoryResult lists recent messages with per-status totals.
type MessageHistoryResult struct {
	Messages        []MessageRow
	Sent            int
	Scheduled       int
	Drafts          int
	Failed          int
	AverageReadRate int
}

// DefaultMessageHistoryLimit caps the history list.
const DefaultMessageHistoryLimit = 100

// QueryMessageHistory lists recent hub messages, newest first.
// PRE: none
// POST: AverageReadRate covers sent messages only
func QueryMessageHistory(ctx context.Context, limit int, deps MessageHistoryDeps) (MessageHistoryResult, error) {
	if limit <= 0 {
		limit = DefaultMessageHistoryLimit
	}
	msgs, err := deps.Store.List(ctx, limit)
	if err != nil {
		return MessageHistoryResult{}, fmt.Errorf("list messages: %w", err)
	}

	var result MessageHistoryResult
	var read, total int
	for _, m := range msgs {
		result.Messages = append(result.Messages, MessageRow{Message: m, ReadPercent: m.ReadPercent()})
		switch m.Status {
		case message.StatusSent:
			result.Sent++
			read += m.ReadCount
			total += m.TotalRecipients
		case message.StatusScheduled:
			result.Scheduled++
		case message.StatusDraft:
			result.Drafts++
		case message.StatusFailed:
			result.Failed++
		}
	}
	result.AverageReadRate = session.Percent(read, total)
	return result, nil
}

// InboxQuery identifies the faculty by login email.
type InboxQuery struct {
	Email string
}

// InboxDeps holds dependencies for the faculty inbox projection.
type InboxDeps struct {
	Records FacultyReader
	Store   MessageReader
}

// InboxItem is one message as a faculty member sees it.
type InboxItem struct {
	ID      string
	Subject string
	Body    string
	SentAt  time.Time
	Read    bool
}

// InboxResult lists the messages sent to the faculty.
type InboxResult struct {
	Items       []InboxItem
	Unread      int
	FetchFailed bool
}

// QueryInbox lists the sent messages addressed to the logged-in faculty.
// PRE: Email comes from the auth session
// POST: Returns ErrFacultyNotFound when the email matches no faculty
func QueryInbox(ctx context.Context, query InboxQuery, deps InboxDeps) (InboxResult, error) {
	facs := records.Fetch(ctx, deps.Records.ListFaculty)
	if facs.Failed() {
		logOverviewFailure(records.CollectionFaculty, facs.Err)
		return InboxResult{FetchFailed: true}, nil
	}
	fac, ok := faculty.FindByEmail(facs.Records, query.Email)
	if !ok {
		return InboxResult{}, ErrFacultyNotFound
	}
	msgs, err := deps.Store.ListForFaculty(ctx, fac.ID)
	if err != nil {
		return InboxResult{}, fmt.Errorf("list inbox: %w", err)
	}

	var result InboxResult
	for _, m := range msgs {
		item := InboxItem{ID: m.ID, Subject: m.Subject, Body: m.Body, SentAt: m.SentAt, Read: m.ReadCount > 0}
		if !item.Read {
			result.Unread++
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}
