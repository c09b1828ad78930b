package web

import (
	"net/http"

	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/application/listutil"
	"facultyhub/internal/application/orchestrators"
	"facultyhub/internal/application/projections"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/message"
	"facultyhub/internal/domain/session"
)

// adminDashboardMessages is how many recent hub messages the overview page lists.
const adminDashboardMessages = 10

// handleAdminDashboard renders the admin overview page.
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	ctx := r.Context()

	overview := projections.QueryAdminOverview(ctx, projections.AdminOverviewDeps{Records: stores.Records})
	requests := projections.QueryChangeRequests(ctx, projections.ChangeRequestsDeps{Records: stores.Records})
	history, err := projections.QueryMessageHistory(ctx, adminDashboardMessages, projections.MessageHistoryDeps{Store: stores.MessageStore})
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_dashboard.html", map[string]any{
		"Overview": overview,
		"Requests": requests,
		"History":  history,
		"Groups":   message.Groups,
		"Statuses": session.Statuses,
	})
}

// handleAdminOverview returns the overview statistics.
func handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	writeJSON(w, http.StatusOK, projections.QueryAdminOverview(r.Context(), projections.AdminOverviewDeps{Records: stores.Records}))
}

// handleAdminAnalytics returns the status, role, city and hall breakdowns.
func handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	writeJSON(w, http.StatusOK, projections.QueryAnalytics(r.Context(), projections.AnalyticsDeps{Records: stores.Records}))
}

// handleAdminFacultyList returns one page of faculty with session tallies.
func handleAdminFacultyList(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	q := r.URL.Query()
	result := projections.QueryFacultyList(r.Context(), projections.FacultyListQuery{
		Filter: listutil.ParseFilterParams(q, []string{"status"}),
		Page:   listutil.ParsePageParams(q),
	}, projections.FacultyListDeps{Records: stores.Records})

	if result.FacultyFailed {
		writeJSONError(w, http.StatusBadGateway, errBackendUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminSessionList returns one page of the session management list.
func handleAdminSessionList(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	q := r.URL.Query()
	result := projections.QuerySessionList(r.Context(), projections.SessionListQuery{
		Filter: listutil.ParseFilterParams(q, []string{"hall", "status"}),
		Page:   listutil.ParsePageParams(q),
	}, projections.SessionListDeps{Records: stores.Records})

	if result.SessionsFailed {
		writeJSONError(w, http.StatusBadGateway, errBackendUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminChangeRequests returns pending and processed change requests.
func handleAdminChangeRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	result := projections.QueryChangeRequests(r.Context(), projections.ChangeRequestsDeps{Records: stores.Records})
	if result.FetchFailed {
		writeJSONError(w, http.StatusBadGateway, errBackendUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type decisionRequest struct {
	Decision string
	Notes    string
}

// handleDecideChangeRequest approves or rejects a pending change request.
func handleDecideChangeRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleAdmin)
	if !ok {
		return
	}
	var body decisionRequest
	if err := strictDecode(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req, err := orchestrators.ExecuteDecideChangeRequest(r.Context(), orchestrators.DecideChangeRequestInput{
		RequestID: r.PathValue("id"),
		Decision:  body.Decision,
		Notes:     body.Notes,
		AdminID:   sess.Subject,
		IPAddress: middleware.ClientIP(r),
	}, orchestrators.DecideChangeRequestDeps{
		Records:    stores.Records,
		AuditStore: stores.AuditStore,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
