// Package account defines the roles a signed-in user can hold.
package account

// Role constants
const (
	RoleAdmin   = "admin"   // conference secretariat
	RoleFaculty = "faculty" // signs in by email
)
