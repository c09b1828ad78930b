package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the record they touch.
type Category string

const (
	CategoryAuth          Category = "auth"
	CategorySession       Category = "session"
	CategoryChangeRequest Category = "change_request"
	CategoryMessage       Category = "message"
)

// Action is what happened.
type Action string

const (
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionRespond  Action = "respond"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSend     Action = "send"
	ActionSchedule Action = "schedule"
	ActionDraft    Action = "draft"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is one entry in the local audit trail. The remote record backend
// keeps no history, so this is the only record of who changed what.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
}

// NewEvent creates an event stamped with at.
// PRE: actorID and action are non-empty
// POST: Returns an Event with a fresh ID and info severity
func NewEvent(actorID, actorRole string, category Category, action Action, at time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: at,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		ActorID:   actorID,
		ActorRole: actorRole,
	}
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithIP records the client address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}
