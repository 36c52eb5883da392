// Package models defines core domain types
package models

import (
	"strings"
	"time"
)

// Profile holds the investor details captured at sign-up
type Profile struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	InvestmentType string `json:"investment_type,omitempty"`
}

// User represents an authenticated investor as reported by the identity backend
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	Profile          Profile    `json:"user_metadata"`
}

// DisplayName returns the full name, or the local part of the email when no name is known
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// RoleLabel returns the badge shown next to the user's name
func (u *User) RoleLabel() string {
	if u.EmailConfirmedAt != nil {
		return "Verified Investor"
	}
	return "Premium Investor"
}

// TokenPair is the credential pair issued by the identity backend
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is the locally cached proof of authentication
type Session struct {
	User      User      `json:"user"`
	Tokens    TokenPair `json:"session"`
	LoginTime time.Time `json:"loginTime"`

	// Copied from the profile so the header can be drawn without a backend call
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// NewSession creates a session stamped with the given login time
func NewSession(user User, tokens TokenPair, loginTime time.Time) *Session {
	return &Session{
		User:      user,
		Tokens:    tokens,
		LoginTime: loginTime.UTC(),
		FirstName: user.Profile.FirstName,
		LastName:  user.Profile.LastName,
		Phone:     user.Profile.Phone,
	}
}

// IsFresh reports whether the session is younger than maxAge at now
func (s *Session) IsFresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LoginTime) < maxAge
}
