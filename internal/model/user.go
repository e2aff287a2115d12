package model

import "time"

// Role values stored on users and carried in the JWT "role" claim.
// STUDENT accounts are booked into slots; the staff roles gate the
// scheduling and dashboard endpoints.
const (
	RoleStudent      = "STUDENT"
	RoleInstructor   = "INSTRUCTOR"
	RoleReceptionist = "RECEPTIONIST"
	RoleAdmin        = "ADMIN"
)

// User mirrors the 'users' table.  Students, instructors, receptionists
// and admins all live here, distinguished by Role.
//
// Fields:
//  ID           – primary key identifier.
//  FullName     – display name, searched by the directory endpoint.
//  Email        – unique login identifier.
//  PasswordHash – bcrypt hash of the password.
//  Role         – one of the Role* constants.
//  IsActive     – soft-delete flag; inactive users cannot log in.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last modification timestamp.
type User struct {
	ID           uint64    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
