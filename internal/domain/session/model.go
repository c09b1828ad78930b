package session

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Status is the confirmation state of a session. Every comparison of
// session statuses goes through this type; raw backend strings are
// converted once by ParseStatus.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusPending    Status = "pending"
	StatusDeclined   Status = "declined"
	StatusUnassigned Status = "unassigned"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusConfirmed, StatusPending, StatusDeclined, StatusUnassigned}

// Session roles.
const (
	RoleSpeaker    = "Speaker"
	RoleJudge      = "Judge"
	RoleModerator  = "Moderator"
	RolePanelist   = "Panelist"
	RoleUnassigned = "unassigned"
)

// Roles lists the assignable roles.
var Roles = []string{RoleSpeaker, RoleJudge, RoleModerator, RolePanelist}

// Domain errors
var (
	ErrEmptyID           = errors.New("session ID is required")
	ErrInvalidStatus     = errors.New("session status must be one of: confirmed, pending, declined, unassigned")
	ErrInvalidResponse   = errors.New("response must be confirmed or declined")
	ErrNotPending        = errors.New("session is not awaiting a response")
	ErrUnassignedStatus  = errors.New("unassigned is reserved for sessions with no faculty")
	ErrMissingAssignment = errors.New("session with faculty cannot be unassigned")
)

// ParseStatus converts a stored status string into a Status, ignoring case
// and surrounding whitespace.
// PRE: none
// POST: Returns a valid Status or ErrInvalidStatus
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Valid reports whether s is one of the four statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// IsResponse reports whether s is a faculty answer (confirmed or declined).
func (s Status) IsResponse() bool {
	return s == StatusConfirmed || s == StatusDeclined
}

// Stored returns the spelling the record backend uses for s.
func (s Status) Stored() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Label is the human-readable form.
func (s Status) Label() string {
	return s.Stored()
}

// Session is one conference slot with its assigned faculty.
type Session struct {
	ID         string
	Code       string
	Date       string
	Time       string
	Hall       string
	Topic      string
	FacultyIDs []string
	Role       string
	Status     Status
}

// Validate checks the session invariants.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Status is unassigned iff FacultyIDs is empty
func (s *Session) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(s.FacultyIDs) == 0 && s.Status != StatusUnassigned {
		return ErrUnassignedStatus
	}
	if len(s.FacultyIDs) > 0 && s.Status == StatusUnassigned {
		return ErrMissingAssignment
	}
	return nil
}

// HasFaculty reports whether anyone is assigned.
func (s Session) HasFaculty() bool {
	return len(s.FacultyIDs) > 0
}

// IsAssignedTo reports whether facultyID is in the assigned list.
func (s Session) IsAssignedTo(facultyID string) bool {
	return facultyID != "" && slices.Contains(s.FacultyIDs, facultyID)
}

// Normalize applies the assignment rule to the stored status: a session
// without faculty is unassigned whatever the backend says, and an assigned
// session with a blank or unassigned status is pending.
// PRE: Status is valid or empty
// POST: Returned session satisfies Validate's status invariant
func (s Session) Normalize() Session {
	switch {
	case !s.HasFaculty():
		s.Status = StatusUnassigned
	case s.Status == "" || s.Status == StatusUnassigned:
		s.Status = StatusPending
	}
	if s.Role == "" {
		s.Role = RoleUnassigned
	}
	return s
}

// ForFaculty returns the sessions whose assigned list contains facultyID,
// preserving input order.
func ForFaculty(all []Session, facultyID string) []Session {
	var out []Session
	for _, s := range all {
		if s.IsAssignedTo(facultyID) {
			out = append(out, s)
		}
	}
	return out
}

// FindByID returns the session with the given ID.
func FindByID(all []Session, id string) (Session, bool) {
	for _, s := range all {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// CheckTransition validates a faculty response against the current status.
// Only pending sessions accept a response.
// PRE: none
// POST: Returns nil if from -> to is pending -> confirmed|declined
func CheckTransition(from, to Status) error {
	if !to.IsResponse() {
		return ErrInvalidResponse
	}
	if from != StatusPending {
		return fmt.Errorf("%w (current status: %s)", ErrNotPending, from)
	}
	return nil
}

// NormalizeRole maps a stored role to its canonical spelling; unknown or
// empty roles become RoleUnassigned.
func NormalizeRole(raw string) string {
	for _, r := range Roles {
		if strings.EqualFold(strings.TrimSpace(raw), r) {
			return r
		}
	}
	return RoleUnassigned
}

// Counts tallies sessions by status.
type Counts struct {
	Total      int
	Confirmed  int
	Pending    int
	Declined   int
	Unassigned int
}

// Tally counts sessions by normalized status.
func Tally(all []Session) Counts {
	c := Counts{Total: len(all)}
	for _, s := range all {
		switch s.Normalize().Status {
		case StatusConfirmed:
			c.Confirmed++
		case StatusPending:
			c.Pending++
		case StatusDeclined:
			c.Declined++
		case StatusUnassigned:
			c.Unassigned++
		}
	}
	return c
}

// ConfirmationRate is round(Confirmed/Total*100), or 0 when Total is 0.
func (c Counts) ConfirmationRate() int {
	return Percent(c.Confirmed, c.Total)
}

// ResponseRate is round((Confirmed+Declined)/Total*100), or 0 when Total is 0.
func (c Counts) ResponseRate() int {
	return Percent(c.Confirmed+c.Declined, c.Total)
}

// Percent returns round(part/total*100), or 0 when total is not positive.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// DistinctHalls counts the distinct non-empty halls in the list.
func DistinctHalls(all []Session) int {
	seen := make(map[string]struct{})
	for _, s := range all {
		if h := strings.TrimSpace(s.Hall); h != "" {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
