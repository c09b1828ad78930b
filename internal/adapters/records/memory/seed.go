package memory

import (
	"time"

	"facultyhub/internal/domain/changerequest"
	"facultyhub/internal/domain/faculty"
	"facultyhub/internal/domain/session"
)

// NewSeeded returns a backend populated with a small demo conference.
func NewSeeded() *Backend {
	b := New()
	b.AddFaculty(
		faculty.Faculty{ID: "recFAC001", Name: "Dr. Asha Rao", Email: "asha.rao@example.org", Mobile: "+91 98200 00001", City: "Pune", Institution: "Sahyadri Medical College", Status: faculty.StatusActive},
		faculty.Faculty{ID: "recFAC002", Name: "Dr. Bilal Khan", Email: "bilal.khan@example.org", Mobile: "+91 98200 00002", City: "Mumbai", Institution: "Coastal Institute of Surgery", Status: faculty.StatusActive},
		faculty.Faculty{ID: "recFAC003", Name: "Dr. Chitra Iyer", Email: "chitra.iyer@example.org", City: "Chennai", Institution: "Marina Teaching Hospital", Status: faculty.StatusActive},
		faculty.Faculty{ID: "recFAC004", Name: "Dr. Dev Malhotra", Email: "dev.malhotra@example.org", City: "Delhi", Institution: "Capital Surgical Academy", Status: faculty.StatusInactive},
	)
	b.AddSessions(
		session.Session{ID: "recSES001", Code: "AMC-101", Date: "2025-12-04", Time: "09:00-10:00", Hall: "Hall A", Topic: "Minimal access surgery: state of the art", FacultyIDs: []string{"recFAC001"}, Role: session.RoleSpeaker, Status: session.StatusConfirmed},
		session.Session{ID: "recSES002", Code: "AMC-102", Date: "2025-12-04", Time: "10:30-11:30", Hall: "Hall B", Topic: "Video session: complex hernia repair", FacultyIDs: []string{"recFAC001", "recFAC002"}, Role: session.RolePanelist, Status: session.StatusPending},
		session.Session{ID: "recSES003", Code: "AMC-103", Date: "2025-12-04", Time: "14:00-15:00", Hall: "Hall A", Topic: "Free paper judging", FacultyIDs: []string{"recFAC001"}, Role: session.RoleJudge, Status: session.StatusDeclined},
		session.Session{ID: "recSES004", Code: "AMC-201", Date: "2025-12-05", Time: "09:00-10:00", Hall: "Hall C", Topic: "Robotic colorectal surgery", FacultyIDs: []string{"recFAC002"}, Role: session.RoleModerator, Status: session.StatusPending},
		session.Session{ID: "recSES005", Code: "AMC-202", Date: "2025-12-05", Time: "11:00-12:00", Hall: "Hall B", Topic: "Bariatric outcomes debate", FacultyIDs: []string{"recFAC003"}, Role: session.RoleSpeaker, Status: session.StatusConfirmed},
		session.Session{ID: "recSES006", Code: "AMC-203", Date: "2025-12-05", Time: "15:00-16:00", Hall: "Hall C", Topic: "Quiz finals", Role: session.RoleUnassigned, Status: session.StatusUnassigned},
	)
	b.AddChangeRequests(
		changerequest.Request{ID: "recREQ001", FacultyID: "recFAC002", SessionID: "recSES004", Type: changerequest.TypeTimeChange, Description: "Arriving on a late flight; could this move after 11:00?", Status: changerequest.StatusPending, Priority: changerequest.PriorityHigh, SubmittedAt: time.Date(2025, 11, 18, 10, 0, 0, 0, time.UTC)},
		changerequest.Request{ID: "recREQ002", FacultyID: "recFAC001", SessionID: "recSES001", Type: changerequest.TypeTechnical, Description: "Need a second screen for live video.", Status: changerequest.StatusApproved, Priority: changerequest.PriorityMedium, AdminNotes: "AV team informed", SubmittedAt: time.Date(2025, 11, 15, 8, 30, 0, 0, time.UTC)},
	)
	return b
}
