package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/healthsync/hms-client/internal/platform/session"
)

// ErrInvalidRequest marks requests rejected before they were sent.
var ErrInvalidRequest = errors.New("invalid request")

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the patient self-registration body. Dates are YYYY-MM-DD.
type Registration struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	Gender        string `json:"gender,omitempty"`
	BloodGroup    string `json:"bloodGroup,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	City          string `json:"city,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
	session.User
}

func (r *authResponse) toSession() (*session.Session, error) {
	if r.Token == "" {
		return nil, fmt.Errorf("auth response carried no token")
	}
	return &session.Session{Token: r.Token, User: r.User}, nil
}

// Login is POST /auth/login.
func (c *Client) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}
	var resp authResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return nil, err
	}
	return resp.toSession()
}

// Register is POST /auth/register. New accounts are always patients.
func (c *Client) Register(ctx context.Context, reg Registration) (*session.Session, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}
	if reg.FirstName == "" || reg.LastName == "" {
		return nil, fmt.Errorf("%w: first name and last name are required", ErrInvalidRequest)
	}
	var resp authResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/register", nil, reg, &resp); err != nil {
		return nil, err
	}
	return resp.toSession()
}
