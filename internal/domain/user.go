package domain

import (
	"slices"
	"strings"
	"time"
)

// User roles.
const (
	RoleBrand  = "Brand"
	RoleTester = "Tester"
	RoleAdmin  = "Admin"
)

// Gender values.
const (
	GenderMale         = "Male"
	GenderFemale       = "Female"
	GenderOther        = "Other"
	GenderNotSpecified = "Not Specified"
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Avatar       string    `json:"avatar"`
	Bio          string    `json:"bio"`
	Age          *int      `json:"age,omitempty"`
	Gender       string    `json:"gender"`
	Interests    []string  `json:"interests"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the Admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary returns the public projection used when a user is embedded in
// another document.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Bio: u.Bio, Role: u.Role}
}

// Account returns the identity block sent alongside a freshly issued token.
func (u *User) Account() *Account {
	return &Account{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

// UserSummary is the embedded form of a user: a product's maker, a review's
// tester or a comment's author.
type UserSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Account is returned by register and login.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// SelfAssignableRoles returns the roles a user may pick at registration.
func SelfAssignableRoles() []string {
	return []string{RoleBrand, RoleTester}
}

// ValidGenders returns the accepted gender values.
func ValidGenders() []string {
	return []string{GenderMale, GenderFemale, GenderOther, GenderNotSpecified}
}

// IsValidGender checks whether gender is one of ValidGenders.
func IsValidGender(gender string) bool {
	return slices.Contains(ValidGenders(), gender)
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
