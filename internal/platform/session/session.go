// Package session holds the signed-in user's API token and profile. A
// Session is passed explicitly to every API call; it is populated on login or
// registration, cleared on logout and reloaded from a Store on startup.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when no user is signed in.
var ErrNoSession = errors.New("not signed in")

// UserType is the dashboard role reported by the API at login.
type UserType string

const (
	UserTypePatient      UserType = "PATIENT"
	UserTypeDoctor       UserType = "DOCTOR"
	UserTypeReceptionist UserType = "RECEPTIONIST"
	UserTypePharmacist   UserType = "PHARMACIST"
)

// User is the profile returned alongside the token.
type User struct {
	UserID    string   `json:"userId"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	UserType  UserType `json:"userType"`
}

// DisplayName is "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Session is the token and profile of the signed-in user.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether s carries a token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	exp, ok := s.ExpiresAt()
	return !ok || now.Before(exp)
}

// BearerToken is the Authorization header value for s.
func (s *Session) BearerToken() string {
	if s == nil || s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}

// ExpiresAt reads the exp claim of the token without verifying its
// signature; the API verifies it on every request. ok is false for opaque
// tokens or tokens without an expiry.
func (s *Session) ExpiresAt() (exp time.Time, ok bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Is reports whether the signed-in user has one of the given types.
func (s *Session) Is(types ...UserType) bool {
	if s == nil {
		return false
	}
	for _, t := range types {
		if s.User.UserType == t {
			return true
		}
	}
	return false
}
