package web

import (
	"net/http"

	"facultyhub/internal/adapters/http/middleware"
	"facultyhub/internal/domain/account"
)

// registerRoutes maps every URL the app serves. Role guards wrap the
// faculty and admin groups; handlers still read the session themselves.
func registerRoutes(mux *http.ServeMux) {
	facultyOnly := middleware.RequireRole(account.RoleFaculty)
	adminOnly := middleware.RequireRole(account.RoleAdmin)

	// Shared
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", metricsRecorder.Handler())
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/admin/login", handleAdminLogin)
	mux.HandleFunc("POST /logout", handleLogout)

	// Faculty
	mux.Handle("GET /dashboard", facultyOnly(http.HandlerFunc(handleFacultyDashboard)))
	mux.Handle("GET /api/dashboard", facultyOnly(http.HandlerFunc(handleFacultyDashboardAPI)))
	mux.Handle("POST /api/sessions/{id}/respond", facultyOnly(http.HandlerFunc(handleRespondToSession)))
	mux.Handle("GET /api/change-requests/mine", facultyOnly(http.HandlerFunc(handleMyChangeRequests)))
	mux.Handle("POST /api/change-requests", facultyOnly(http.HandlerFunc(handleSubmitChangeRequest)))
	mux.Handle("GET /api/inbox", facultyOnly(http.HandlerFunc(handleInbox)))
	mux.Handle("POST /api/inbox/{id}/read", facultyOnly(http.HandlerFunc(handleMarkMessageRead)))

	// Admin
	mux.Handle("GET /admin", adminOnly(http.HandlerFunc(handleAdminDashboard)))
	mux.Handle("GET /api/admin/overview", adminOnly(http.HandlerFunc(handleAdminOverview)))
	mux.Handle("GET /api/admin/analytics", adminOnly(http.HandlerFunc(handleAdminAnalytics)))
	mux.Handle("GET /api/admin/faculty", adminOnly(http.HandlerFunc(handleAdminFacultyList)))
	mux.Handle("GET /api/admin/sessions", adminOnly(http.HandlerFunc(handleAdminSessionList)))
	mux.Handle("GET /api/admin/change-requests", adminOnly(http.HandlerFunc(handleAdminChangeRequests)))
	mux.Handle("POST /api/admin/change-requests/{id}/decision", adminOnly(http.HandlerFunc(handleDecideChangeRequest)))
	mux.Handle("/api/admin/messages", adminOnly(http.HandlerFunc(handleAdminMessages)))
	mux.Handle("POST /api/admin/messages/{id}/test", adminOnly(http.HandlerFunc(handleTestSendMessage)))
	mux.Handle("GET /api/admin/audit", adminOnly(http.HandlerFunc(handleAdminAudit)))
	mux.Handle("GET /api/admin/perf", adminOnly(http.HandlerFunc(handleAdminPerf)))
}
