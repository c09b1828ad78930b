package web

import (
	"errors"
	"net/http"

	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/application/orchestrators"
	"facultyhub/internal/application/projections"
	"facultyhub/internal/domain/account"
	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/session"
)

// Panel states of the faculty dashboard page.
const (
	dashboardReady       = "ready"
	dashboardNotFound    = "not_found"
	dashboardUnavailable = "unavailable"
)

func loadFacultyDashboard(r *http.Request, email string) (projections.FacultyDashboardResult, error) {
	return projections.QueryFacultyDashboard(r.Context(),
		projections.FacultyDashboardQuery{Email: email},
		projections.FacultyDashboardDeps{Records: stores.Records},
	)
}

// handleFacultyDashboard renders the logged-in faculty's sessions.
func handleFacultyDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	result, err := loadFacultyDashboard(r, sess.Email)

	data := map[string]any{
		"State":           dashboardReady,
		"Email":           sess.Email,
		"Result":          result,
		"ChangeTypes":     changerequest.Types,
		"Priorities":      changerequest.Priorities,
		"StatusConfirmed": session.StatusConfirmed,
		"StatusDeclined":  session.StatusDeclined,
		"StatusPending":   session.StatusPending,
	}
	switch {
	case errors.Is(err, projections.ErrFacultyNotFound):
		data["State"] = dashboardNotFound
		renderTemplateStatus(w, r, http.StatusNotFound, "faculty_dashboard.html", data)
	case err != nil:
		internalError(w, err)
	case result.FetchFailed:
		data["State"] = dashboardUnavailable
		renderTemplateStatus(w, r, http.StatusBadGateway, "faculty_dashboard.html", data)
	default:
		// The inbox is secondary; a failed read shows an empty list.
		inbox, err := projections.QueryInbox(r.Context(),
			projections.InboxQuery{Email: sess.Email},
			projections.InboxDeps{Records: stores.Records, Store: stores.MessageStore},
		)
		if err == nil {
			data["Inbox"] = inbox
		}
		renderTemplate(w, r, "faculty_dashboard.html", data)
	}
}

// handleFacultyDashboardAPI is the JSON form of the faculty dashboard.
func handleFacultyDashboardAPI(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	result, err := loadFacultyDashboard(r, sess.Email)
	switch {
	case errors.Is(err, projections.ErrFacultyNotFound):
		writeJSONError(w, http.StatusNotFound, projections.ErrFacultyNotFound.Error())
	case err != nil:
		internalError(w, err)
	case result.FetchFailed:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  errBackendUnavailable,
			"failed": result.FailedCollections,
		})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

type respondRequest struct {
	Response string
	Comment  string
}

// Sessions and Counts are omitted when the re-read after the write failed.
type respondResponse struct {
	Session       session.Session
	Sessions      []session.Session `json:",omitempty"`
	Counts        *session.Counts   `json:",omitempty"`
	RefreshFailed bool
}

// handleRespondToSession confirms or declines one of the faculty's sessions.
func handleRespondToSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	var body respondRequest
	if err := strictDecode(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := orchestrators.ExecuteRespondToSession(r.Context(), orchestrators.RespondToSessionInput{
		FacultyEmail: sess.Email,
		SessionID:    r.PathValue("id"),
		Response:     body.Response,
		Comment:      body.Comment,
		IPAddress:    middleware.ClientIP(r),
	}, orchestrators.RespondToSessionDeps{
		Records:    stores.Records,
		AuditStore: stores.AuditStore,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := respondResponse{
		Session:       result.Session,
		RefreshFailed: result.RefreshFailed,
	}
	if !result.RefreshFailed {
		counts := session.Tally(result.Sessions)
		resp.Sessions = result.Sessions
		resp.Counts = &counts
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMyChangeRequests lists the faculty's own change requests.
func handleMyChangeRequests(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	result, err := projections.QueryMyChangeRequests(r.Context(),
		projections.MyChangeRequestsQuery{Email: sess.Email},
		projections.ChangeRequestsDeps{Records: stores.Records},
	)
	switch {
	case err != nil:
		writeError(w, err)
	case result.FetchFailed:
		writeJSONError(w, http.StatusBadGateway, errBackendUnavailable)
	default:
		writeJSON(w, http.StatusOK, result.Rows)
	}
}

type submitChangeRequestRequest struct {
	SessionID   string
	Type        string
	Description string
	Priority    string
}

// handleSubmitChangeRequest files a change request from the faculty dashboard.
func handleSubmitChangeRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	var body submitChangeRequestRequest
	if err := strictDecode(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req, err := orchestrators.ExecuteSubmitChangeRequest(r.Context(), orchestrators.SubmitChangeRequestInput{
		FacultyEmail: sess.Email,
		SessionID:    body.SessionID,
		Type:         body.Type,
		Description:  body.Description,
		Priority:     body.Priority,
		IPAddress:    middleware.ClientIP(r),
	}, orchestrators.SubmitChangeRequestDeps{
		Records:    stores.Records,
		AuditStore: stores.AuditStore,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// handleInbox lists hub messages sent to the faculty.
func handleInbox(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	result, err := projections.QueryInbox(r.Context(),
		projections.InboxQuery{Email: sess.Email},
		projections.InboxDeps{Records: stores.Records, Store: stores.MessageStore},
	)
	switch {
	case err != nil:
		writeError(w, err)
	case result.FetchFailed:
		writeJSONError(w, http.StatusBadGateway, errBackendUnavailable)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// handleMarkMessageRead records that the faculty opened a message.
func handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleFaculty)
	if !ok {
		return
	}
	err := orchestrators.ExecuteMarkMessageRead(r.Context(), orchestrators.MarkMessageReadInput{
		MessageID:    r.PathValue("id"),
		FacultyEmail: sess.Email,
	}, orchestrators.MarkMessageReadDeps{
		Records: stores.Records,
		Store:   stores.MessageStore,
		Now:     timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
