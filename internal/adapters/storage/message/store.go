package message

import (
	"context"
	"time"

	domain "facultyhub/internal/domain/message"
)

// Store persists communication hub messages and their resolved recipients.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Message, error)
	Save(ctx context.Context, value domain.Message) error
	List(ctx context.Context, limit int) ([]domain.Message, error)
	ListDue(ctx context.Context, now time.Time) ([]domain.Message, error)
	SaveRecipients(ctx context.Context, messageID string, recipients []domain.Recipient) error
	ListRecipients(ctx context.Context, messageID string) ([]domain.Recipient, error)
	ListForFaculty(ctx context.Context, facultyID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, messageID, facultyID string, at time.Time) error
}

var _ Store = (*SQLiteStore)(nil)
