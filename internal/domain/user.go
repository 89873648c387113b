package domain

import "time"

// Role classifies an account for quota purposes. Registration always assigns
// one, so an authenticated caller can never be role-less.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleCompany Role = "COMPANY"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleCompany
}

// User is the domain model for registered accounts.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	DocumentNumber string
	Phone          string
	Address        string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
