package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/application/orchestrators"
	"facultyhub/internal/application/projections"
	"facultyhub/internal/domain/account"
)

// scheduleLayouts are accepted for ScheduleAt: RFC 3339 from API clients,
// and the datetime-local form value, read in server local time.
var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

var errBadScheduleAt = errors.New("ScheduleAt must be RFC 3339 or YYYY-MM-DDTHH:MM")

func parseScheduleAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadScheduleAt
}

// deliverDeps collects what message delivery needs from the globals.
func deliverDeps() orchestrators.DeliverDeps {
	return orchestrators.DeliverDeps{
		Records:     stores.Records,
		Store:       stores.MessageStore,
		EmailSender: emailSender,
		Metrics:     metricsRecorder,
		Now:         timeNow,
		FromAddress: settings.FromAddress,
		ReplyTo:     settings.ReplyTo,
	}
}

type composeRequest struct {
	MessageID  string
	Subject    string
	Body       string
	Groups     []string
	Action     string
	ScheduleAt string
}

// handleAdminMessages lists hub messages (GET) or composes one (POST).
func handleAdminMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r, account.RoleAdmin)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		result, err := projections.QueryMessageHistory(r.Context(), limit, projections.MessageHistoryDeps{Store: stores.MessageStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case http.MethodPost:
		var body composeRequest
		if err := strictDecode(r, &body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request")
			return
		}
		scheduleAt, err := parseScheduleAt(body.ScheduleAt)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		m, err := orchestrators.ExecuteComposeMessage(r.Context(), orchestrators.ComposeMessageInput{
			MessageID:  body.MessageID,
			SenderID:   sess.Subject,
			Subject:    body.Subject,
			Body:       body.Body,
			Groups:     body.Groups,
			Action:     body.Action,
			ScheduleAt: scheduleAt,
			IPAddress:  middleware.ClientIP(r),
		}, orchestrators.ComposeMessageDeps{
			DeliverDeps: deliverDeps(),
			AuditStore:  stores.AuditStore,
			GenerateID:  generateID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusCreated
		if body.MessageID != "" {
			status = http.StatusOK
		}
		writeJSON(w, status, m)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type testSendRequest struct {
	Address string
}

// handleTestSendMessage sends a stored message to one address for preview.
func handleTestSendMessage(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r, account.RoleAdmin); !ok {
		return
	}
	var body testSendRequest
	if err := strictDecode(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request")
		return
	}
	err := orchestrators.ExecuteTestSendMessage(r.Context(), orchestrators.TestSendMessageInput{
		MessageID:   r.PathValue("id"),
		TestAddress: strings.TrimSpace(body.Address),
	}, deliverDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
