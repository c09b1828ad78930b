package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"facultyhub/internal/domain/message"
)

// DefaultDispatchInterval is how often scheduled messages are checked.
const DefaultDispatchInterval = time.Minute

// ExecuteDispatchDueMessages sends every scheduled message whose time has come.
// A message whose groups match nobody is marked failed; a record backend
// outage leaves it scheduled for the next run. A message in deps.Unrecorded
// was already delivered, so only its stored state is written.
// PRE: Deps are valid and the store is migrated
// POST: Returns the number of messages sent
func ExecuteDispatchDueMessages(ctx context.Context, deps DeliverDeps) (int, error) {
	due, err := deps.Store.ListDue(ctx, deps.Now())
	if err != nil {
		return 0, fmt.Errorf("list due messages: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	slog.Info("dispatch_start", "count", len(due))
	var sent, failed int
	for _, m := range due {
		if delivered, ok := deps.Unrecorded.take(m.ID); ok {
			if err := deps.Store.Save(ctx, delivered); err != nil {
				deps.Unrecorded.add(delivered)
				slog.Error("dispatch_save_failed", "message_id", m.ID, "error", err)
				continue
			}
			slog.Info("dispatch_recorded", "message_id", m.ID, "status", delivered.Status)
			continue
		}
		if err := m.CanSend(); err != nil {
			continue
		}
		err := deliver(ctx, &m, deps)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrDeliveredNotRecorded):
			sent++
			slog.Error("dispatch_unrecorded", "message_id", m.ID, "error", err)
		case errors.Is(err, message.ErrNoRecipients):
			failed++
			m.MarkFailed(deps.Now(), err.Error())
			if saveErr := deps.Store.Save(ctx, m); saveErr != nil {
				slog.Error("dispatch_save_failed", "message_id", m.ID, "error", saveErr)
			}
			slog.Warn("dispatch_failed", "message_id", m.ID, "error", err)
		default:
			failed++
			slog.Error("dispatch_failed", "message_id", m.ID, "status", m.Status, "error", err)
		}
	}

	slog.Info("dispatch_complete", "processed", len(due), "sent", sent, "failed", failed)
	return sent, nil
}

// StartDispatchWorker runs ExecuteDispatchDueMessages every interval until
// the returned stop function is called or ctx is cancelled.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started; stop blocks until it has exited
func StartDispatchWorker(ctx context.Context, deps DeliverDeps, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultDispatchInterval
	}
	if deps.Unrecorded == nil {
		deps.Unrecorded = NewUnrecorded()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExecuteDispatchDueMessages(ctx, deps); err != nil {
					slog.Error("dispatch_worker_error", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
