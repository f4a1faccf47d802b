// Package account manages the signed-in session: login, patient
// self-registration, logout and restoring the session on startup.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
)

// ErrSaveSession means the API accepted the credentials but the session
// could not be stored.
var ErrSaveSession = errors.New("save session")

// Authenticator is the auth half of the hospital API.
type Authenticator interface {
	Login(ctx context.Context, creds apiclient.Credentials) (*session.Session, error)
	Register(ctx context.Context, reg apiclient.Registration) (*session.Session, error)
}

var _ Authenticator = (*apiclient.Client)(nil)

type Service struct {
	auth   Authenticator
	store  session.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(auth Authenticator, store session.Store, logger zerolog.Logger) *Service {
	return &Service{auth: auth, store: store, logger: logger, now: time.Now}
}

// Login replaces any stored session with a fresh one.
func (s *Service) Login(ctx context.Context, creds apiclient.Credentials) (*session.Session, error) {
	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveSession, err)
	}
	s.logger.Info().Str("user_id", sess.User.UserID).Str("user_type", string(sess.User.UserType)).Msg("signed in")
	return sess, nil
}

// Register creates a patient account and signs it in.
func (s *Service) Register(ctx context.Context, reg apiclient.Registration) (*session.Session, error) {
	sess, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveSession, err)
	}
	s.logger.Info().Str("user_id", sess.User.UserID).Msg("registered")
	return sess, nil
}

func (s *Service) Logout() error {
	return s.store.Clear()
}

// Current returns the stored session. An expired session is cleared and
// reported as ErrNoSession.
func (s *Service) Current() (*session.Session, error) {
	sess, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if !sess.Valid(s.now()) {
		if err := s.store.Clear(); err != nil && !errors.Is(err, session.ErrNoSession) {
			return nil, err
		}
		return nil, session.ErrNoSession
	}
	return sess, nil
}
