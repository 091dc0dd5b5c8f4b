package models

import (
	"time"
)

// Role is the dashboard privilege level of a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole returns RoleAdmin only for the exact string "ADMIN"; anything
// else, including lowercase or missing input, is the lesser-privileged RoleUser.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// User is a dashboard account stored in the users table.
// PasswordHash is only set for accounts that can log in and never leaves the server.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         *string   `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the ADMIN role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanLogin reports whether a password has been set for the account
func (u *User) CanLogin() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserPatch carries a partial update. Nil fields are left unchanged;
// NameSet distinguishes an explicit null name from an absent one.
type UserPatch struct {
	Email   *string
	Name    *string
	NameSet bool
	Role    *Role
}

// IsEmpty reports whether the patch would change nothing
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && !p.NameSet && p.Role == nil
}

// Apply copies the supplied fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.NameSet {
		u.Name = p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}
