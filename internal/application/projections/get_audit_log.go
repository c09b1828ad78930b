package projections

import (
	"context"
	"fmt"
	"time"

	auditStore "facultyhub/internal/adapters/storage/audit"
	"facultyhub/internal/domain/audit"
)

// AuditReader lists audit events.
type AuditReader interface {
	List(ctx context.Context, filter auditStore.Filter, limit int) ([]audit.Event, error)
}

// AuditLogQuery filters the audit trail.
type AuditLogQuery struct {
	Category string
	ActorID  string
	Days     int // 0 means no time limit
	Limit    int
}

// AuditLogDeps holds dependencies for the audit log projection.
type AuditLogDeps struct {
	Store AuditReader
}

// DefaultAuditLimit caps the audit list.
const DefaultAuditLimit = 200

// QueryAuditLog returns recent audit events, newest first.
// PRE: none
// POST: Returns at most Limit events (DefaultAuditLimit when unset)
func QueryAuditLog(ctx context.Context, query AuditLogQuery, deps AuditLogDeps, now time.Time) ([]audit.Event, error) {
	limit := query.Limit
	if limit <= 0 || limit > DefaultAuditLimit {
		limit = DefaultAuditLimit
	}
	filter := auditStore.Filter{Category: audit.Category(query.Category), ActorID: query.ActorID}
	if query.Days > 0 {
		filter.Since = now.AddDate(0, 0, -query.Days)
	}
	events, err := deps.Store.List(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
