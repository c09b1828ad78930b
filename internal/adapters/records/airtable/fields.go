package airtable

import (
	"strings"
	"time"

	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

type record[F any] struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime"`
	Fields      F      `json:"fields"`
}

type listResponse[F any] struct {
	Records []record[F] `json:"records"`
	Offset  string      `json:"offset,omitempty"`
}

type writeBody struct {
	Fields map[string]any `json:"fields"`
}

type facultyFields struct {
	Name        string `json:"Name"`
	Email       string `json:"Email"`
	Mobile      string `json:"Mobile"`
	City        string `json:"City"`
	Institution string `json:"Institution"`
	Status      string `json:"Status"`
	LastLogin   string `json:"Last Login"`
}

func (f facultyFields) toDomain(id string) faculty.Faculty {
	return faculty.Faculty{
		ID:          id,
		Name:        strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		Mobile:      f.Mobile,
		City:        strings.TrimSpace(f.City),
		Institution: f.Institution,
		Status:      faculty.NormalizeStatus(f.Status),
		LastLogin:   parseTime(f.LastLogin),
	}
}

type sessionFields struct {
	Code    string   `json:"Session ID"`
	Date    string   `json:"Date"`
	Time    string   `json:"Time"`
	Hall    string   `json:"Hall"`
	Topic   string   `json:"Topic"`
	Faculty []string `json:"Faculty"`
	Role    string   `json:"Role"`
	Status  string   `json:"Status"`
}

// toDomain tolerates unknown status strings: they read as blank and
// Normalize turns them into pending or unassigned.
func (f sessionFields) toDomain(id string) session.Session {
	status, err := session.ParseStatus(f.Status)
	if err != nil {
		status = ""
	}
	return session.Session{
		ID:         id,
		Code:       f.Code,
		Date:       f.Date,
		Time:       f.Time,
		Hall:       strings.TrimSpace(f.Hall),
		Topic:      f.Topic,
		FacultyIDs: f.Faculty,
		Role:       session.NormalizeRole(f.Role),
		Status:     status,
	}.Normalize()
}

type changeRequestFields struct {
	Faculty     []string `json:"Faculty"`
	Session     []string `json:"Session"`
	Type        string   `json:"Type"`
	Description string   `json:"Description"`
	Status      string   `json:"Status"`
	Priority    string   `json:"Priority"`
	AdminNotes  string   `json:"Admin Notes"`
	SubmittedAt string   `json:"Submitted At"`
	DecidedAt   string   `json:"Decided At"`
	DecidedBy   string   `json:"Decided By"`
}

func (f changeRequestFields) toDomain(id, createdTime string) changerequest.Request {
	status, err := changerequest.ParseStatus(f.Status)
	if err != nil {
		status = changerequest.StatusPending
	}
	typ := changerequest.NormalizeType(f.Type)
	if typ == "" {
		typ = changerequest.TypeOther
	}
	submitted := parseTime(f.SubmittedAt)
	if submitted.IsZero() {
		submitted = parseTime(createdTime)
	}
	return changerequest.Request{
		ID:          id,
		FacultyID:   first(f.Faculty),
		SessionID:   first(f.Session),
		Type:        typ,
		Description: f.Description,
		Status:      status,
		Priority:    changerequest.NormalizePriority(f.Priority),
		AdminNotes:  f.AdminNotes,
		SubmittedAt: submitted,
		DecidedAt:   parseTime(f.DecidedAt),
		DecidedBy:   f.DecidedBy,
	}
}

func newChangeRequestFields(req changerequest.Request) map[string]any {
	fields := map[string]any{
		"Faculty":     []string{req.FacultyID},
		"Type":        req.Type,
		"Description": req.Description,
		"Status":      changerequest.StoredStatus(changerequest.StatusPending),
		"Priority":    changerequest.StoredStatus(changerequest.NormalizePriority(req.Priority)),
	}
	if req.SessionID != "" {
		fields["Session"] = []string{req.SessionID}
	}
	if !req.SubmittedAt.IsZero() {
		fields["Submitted At"] = req.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return fields
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// parseTime accepts the backend's date-time and date-only formats.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
