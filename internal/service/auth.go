package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

// ErrInvalidLoginInput is returned when the username or password is blank.
var ErrInvalidLoginInput = errors.New("username and password are required")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      ports.AuthAPI
	Sessions *SessionStore
	Logger   *slog.Logger
	Clock    clockwork.Clock
}

// AuthService orchestrates login, logout and profile loading on top of the session store.
type AuthService struct {
	api      ports.AuthAPI
	sessions *SessionStore
	logger   *slog.Logger
	clock    clockwork.Clock
	profiles singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.API == nil {
		return nil, errors.New("auth api is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthService{
		api:      opts.API,
		sessions: opts.Sessions,
		logger:   logger.With("component", "auth_service"),
		clock:    clock,
	}, nil
}

// Login exchanges the form values for a credential and stores the returned profile.
func (s *AuthService) Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.UserProfile, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return domainauth.UserProfile{}, ErrInvalidLoginInput
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("login: %w", err)
	}

	cred := domainauth.Credential(resp.Token)
	if cred.IsZero() {
		return domainauth.UserProfile{}, fmt.Errorf("login: %w", domainauth.ErrEmptyCredential)
	}

	if resp.ExpiresIn > 0 {
		err = s.sessions.SetCredentialWithExpiry(ctx, cred, s.clock.Now().Add(time.Duration(resp.ExpiresIn)*time.Second))
	} else {
		err = s.sessions.SetCredential(ctx, cred)
	}
	if err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("store credential: %w", err)
	}

	if err := s.sessions.SetProfile(resp.User); err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("store profile: %w", err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "username", resp.User.Username, "credential", cred.Redacted())
	return resp.User, nil
}

// Logout tells the backend (best effort) and then clears the local session.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.sessions.IsAuthenticated() {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.WarnContext(ctx, "backend logout failed; clearing local session anyway", "error", err)
		}
	}
	if err := s.sessions.ClearCredential(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// FetchProfile loads the current user's profile. It is a no-op returning nil
// when no credential is held. Concurrent calls share one backend request.
func (s *AuthService) FetchProfile(ctx context.Context) (*domainauth.UserProfile, error) {
	if !s.sessions.IsAuthenticated() {
		return nil, nil
	}

	ch := s.profiles.DoChan("profile", func() (any, error) {
		// The shared fetch outlives the caller that started it; each caller
		// stops waiting on its own context instead.
		profile, err := s.api.UserInfo(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch user info: %w", err)
		}
		if err := s.sessions.SetProfile(profile); err != nil {
			return nil, fmt.Errorf("store profile: %w", err)
		}
		return &profile, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *(res.Val.(*domainauth.UserProfile))
		return &p, nil
	}
}

// Status is a read-only view of the session for presentation.
type Status struct {
	Authenticated bool                    `json:"authenticated"`
	DisplayName   string                  `json:"displayName"`
	Avatar        string                  `json:"avatar,omitempty"`
	Profile       *domainauth.UserProfile `json:"profile,omitempty"`
}

// Status summarises the current session.
func (s *AuthService) Status() Status {
	snap := s.sessions.Snapshot()
	st := Status{
		Authenticated: snap.IsAuthenticated(),
		DisplayName:   snap.Profile.DisplayName(),
		Profile:       snap.Profile,
	}
	if snap.Profile != nil {
		st.Avatar = snap.Profile.Avatar
	}
	return st
}
