package faculty

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Faculty statuses as stored by the record backend.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Domain errors
var (
	ErrEmptyID       = errors.New("faculty ID is required")
	ErrEmptyEmail    = errors.New("email is required")
	ErrInvalidEmail  = errors.New("email address is not valid")
	ErrInvalidStatus = errors.New("faculty status must be one of: Active, Inactive")
	ErrNotFound      = errors.New("faculty not found in database")
)

// Faculty is a conference faculty member. Records are owned by the remote
// backend and are read-only here.
type Faculty struct {
	ID          string
	Name        string
	Email       string
	Mobile      string
	City        string
	Institution string
	Status      string
	LastLogin   time.Time
}

// Validate checks if the Faculty has valid data.
// PRE: Faculty struct is populated
// POST: Returns nil if valid, error otherwise
func (f *Faculty) Validate() error {
	if f.ID == "" {
		return ErrEmptyID
	}
	if f.Email == "" {
		return ErrEmptyEmail
	}
	if f.Status != "" && NormalizeStatus(f.Status) == "" {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive reports whether the faculty member's status is Active. A blank
// status is not active.
// INVARIANT: Status field is not mutated
func (f Faculty) IsActive() bool {
	return NormalizeStatus(f.Status) == StatusActive
}

// DisplayName falls back to the email when no name is recorded.
func (f Faculty) DisplayName() string {
	if strings.TrimSpace(f.Name) != "" {
		return f.Name
	}
	return f.Email
}

// NormalizeStatus maps a stored status to its canonical spelling,
// returning "" for unknown values.
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return StatusActive
	case "inactive":
		return StatusInactive
	}
	return ""
}

// NormalizeEmail lower-cases and trims an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that s is a single bare address with a local part
// and a domain.
// PRE: none
// POST: Returns nil if s is usable as a login identity
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptyEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return ErrInvalidEmail
	}
	return nil
}

// FindByEmail returns the first faculty whose email matches, ignoring case
// and surrounding whitespace.
func FindByEmail(all []Faculty, email string) (Faculty, bool) {
	want := NormalizeEmail(email)
	if want == "" {
		return Faculty{}, false
	}
	for _, f := range all {
		if NormalizeEmail(f.Email) == want {
			return f, true
		}
	}
	return Faculty{}, false
}

// IndexByID builds an ID lookup.
func IndexByID(all []Faculty) map[string]Faculty {
	idx := make(map[string]Faculty, len(all))
	for _, f := range all {
		idx[f.ID] = f
	}
	return idx
}
