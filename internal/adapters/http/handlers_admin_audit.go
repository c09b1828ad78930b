package web

import (
	"net/http"
	"strconv"
	"time"

	"facultyhub/internal/application/projections"
	"facultyhub/internal/domain/account"
)

// perfTopN is how many of the slowest paths, queries and remote calls the
// perf snapshot keeps.
const perfTopN = 10

// handleAdminAudit returns recent audit events (GET /api/admin/audit)
// PRE: User must be authenticated as admin
// POST: Returns events newest first, filtered by category, actor_id and days
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}

	q := r.URL.Query()
	query := projections.AuditLogQuery{
		Category: q.Get("category"),
		ActorID:  q.Get("actor_id"),
	}
	if days, err := strconv.Atoi(q.Get("days")); err == nil && days > 0 {
		query.Days = days
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		query.Limit = limit
	}

	events, err := projections.QueryAuditLog(r.Context(), query, projections.AuditLogDeps{Store: stores.AuditStore}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAdminPerf returns the request, query and remote call timing snapshot
// for the last `minutes` minutes (default 60).
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	minutes := 60
	if m, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && m > 0 {
		minutes = m
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, perfTopN))
}
