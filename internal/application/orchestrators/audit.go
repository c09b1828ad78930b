package orchestrators

import (
	"context"
	"log/slog"

	"facultyhub/internal/domain/audit"
)

// AuditStore persists audit trail entries. A nil AuditStore disables the trail.
type AuditStore interface {
	Save(ctx context.Context, event audit.Event) error
}

// recordAudit saves e, logging instead of failing: the change it describes
// has already happened in the record backend.
func recordAudit(ctx context.Context, store AuditStore, e audit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, e); err != nil {
		slog.Error("audit_save_failed", "category", e.Category, "action", e.Action, "resource_id", e.ResourceID, "error", err)
	}
}
