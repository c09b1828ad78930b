package changerequest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Request statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request types
const (
	TypeTimeChange    = "Time Change"
	TypeHallChange    = "Hall Change"
	TypeTechnical     = "Technical Requirements"
	TypeTopicChange   = "Topic Change"
	TypeOther         = "Other"
	MaxDescriptionLen = 2000
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Types lists the request categories faculty can choose from.
var Types = []string{TypeTimeChange, TypeHallChange, TypeTechnical, TypeTopicChange, TypeOther}

// Priorities lists valid priorities, lowest first.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Domain errors
var (
	ErrEmptyFacultyID   = errors.New("requesting faculty is required")
	ErrInvalidType      = errors.New("request type must be one of: Time Change, Hall Change, Technical Requirements, Topic Change, Other")
	ErrEmptyDescription = errors.New("description is required")
	ErrDescriptionLong  = fmt.Errorf("description must be at most %d characters", MaxDescriptionLen)
	ErrInvalidStatus    = errors.New("request status must be one of: pending, approved, rejected")
	ErrInvalidPriority  = errors.New("priority must be one of: low, medium, high")
	ErrAlreadyDecided   = errors.New("change request has already been decided")
	ErrEmptyDecidedBy   = errors.New("deciding admin is required")
)

// Request is a faculty-submitted change request awaiting admin disposition.
type Request struct {
	ID          string
	FacultyID   string
	SessionID   string
	Type        string
	Description string
	Status      string
	Priority    string
	AdminNotes  string
	SubmittedAt time.Time
	DecidedAt   time.Time
	DecidedBy   string
}

// Validate checks if the Request has valid data.
// PRE: Request struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Request) Validate() error {
	if r.FacultyID == "" {
		return ErrEmptyFacultyID
	}
	if NormalizeType(r.Type) == "" {
		return ErrInvalidType
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > MaxDescriptionLen {
		return ErrDescriptionLong
	}
	if !slices.Contains([]string{StatusPending, StatusApproved, StatusRejected}, r.Status) {
		return ErrInvalidStatus
	}
	if !slices.Contains(Priorities, r.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

// IsPending returns true if the request is awaiting decision.
// INVARIANT: Status field is not mutated
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// IsTerminal reports whether the request has been approved or rejected.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// Approve moves the request to approved.
// PRE: Request is pending, adminID is non-empty
// POST: Status is approved; AdminNotes, DecidedBy and DecidedAt are set
func (r *Request) Approve(adminID, notes string, now time.Time) error {
	return r.decide(StatusApproved, adminID, notes, now)
}

// Reject moves the request to rejected.
// PRE: Request is pending, adminID is non-empty
// POST: Status is rejected; AdminNotes, DecidedBy and DecidedAt are set
func (r *Request) Reject(adminID, notes string, now time.Time) error {
	return r.decide(StatusRejected, adminID, notes, now)
}

func (r *Request) decide(status, adminID, notes string, now time.Time) error {
	if !r.IsPending() {
		return ErrAlreadyDecided
	}
	if adminID == "" {
		return ErrEmptyDecidedBy
	}
	r.Status = status
	r.AdminNotes = strings.TrimSpace(notes)
	r.DecidedBy = adminID
	r.DecidedAt = now
	return nil
}

// ParseStatus maps a stored status to its canonical form, ignoring case.
// Blank values are pending; the backend leaves new rows empty.
func ParseStatus(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusPending, nil
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// StoredStatus is the backend spelling of a canonical status.
func StoredStatus(status string) string {
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

// NormalizeType maps a type to its canonical spelling, or "" if unknown.
func NormalizeType(raw string) string {
	for _, t := range Types {
		if strings.EqualFold(strings.TrimSpace(raw), t) {
			return t
		}
	}
	return ""
}

// NormalizePriority maps a priority to its canonical form; blank and
// unknown values become medium.
func NormalizePriority(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	if slices.Contains(Priorities, p) {
		return p
	}
	return PriorityMedium
}

// Partition splits requests into pending and processed, preserving order.
func Partition(all []Request) (pending, processed []Request) {
	for _, r := range all {
		if r.IsPending() {
			pending = append(pending, r)
		} else {
			processed = append(processed, r)
		}
	}
	return pending, processed
}

// FindByID returns the request with the given ID.
func FindByID(all []Request, id string) (Request, bool) {
	for _, r := range all {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}

// Summary counts requests by status and flags high-priority pending ones.
type Summary struct {
	Total       int
	Pending     int
	Approved    int
	Rejected    int
	HighPending int
}

// Summarize tallies requests.
func Summarize(all []Request) Summary {
	s := Summary{Total: len(all)}
	for _, r := range all {
		switch r.Status {
		case StatusPending:
			s.Pending++
			if r.Priority == PriorityHigh {
				s.HighPending++
			}
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}
