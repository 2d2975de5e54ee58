package user

import (
	"strings"
	"time"
)

// User is the local record linked to an identity-provider account.
type User struct {
	ID         string
	ExternalID string
	Email      string
	Name       string
	ImageURL   *string
	Industry   string
	Experience *int
	Bio        string
	Skills     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Onboarded reports whether the user has picked an industry.
func (u User) Onboarded() bool {
	return strings.TrimSpace(u.Industry) != ""
}

// Profile carries the professional fields written by a profile update.
type Profile struct {
	Industry   string
	Experience *int
	Bio        string
	Skills     []string
}

// Principal is an authenticated caller.
type Principal struct {
	ExternalID string
	SessionID  string
}

// ExternalProfile is what the identity provider knows about an account.
type ExternalProfile struct {
	Email     string
	FirstName string
	ImageURL  *string
}
