package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialStorage = (*MemoryCredentialStorage)(nil)
	_ ports.AuthAPI           = (*StubAuthAPI)(nil)
)

// MemoryCredentialStorage is an in-memory credential store for unit tests.
// SaveErr, LoadErr and DeleteErr inject failures.
type MemoryCredentialStorage struct {
	mu     sync.Mutex
	rec    *domainauth.StoredCredential
	saves  int
	delete int

	SaveErr   error
	LoadErr   error
	DeleteErr error
}

// NewMemoryCredentialStorage creates an empty in-memory store.
func NewMemoryCredentialStorage() *MemoryCredentialStorage {
	return &MemoryCredentialStorage{}
}

// Seed stores rec directly, bypassing SaveErr.
func (m *MemoryCredentialStorage) Seed(rec domainauth.StoredCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
}

func (m *MemoryCredentialStorage) Load(_ context.Context) (domainauth.StoredCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return domainauth.StoredCredential{}, m.LoadErr
	}
	if m.rec == nil {
		return domainauth.StoredCredential{}, ports.ErrCredentialNotFound
	}
	return *m.rec, nil
}

func (m *MemoryCredentialStorage) Save(_ context.Context, rec domainauth.StoredCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if rec.Value.IsZero() {
		return domainauth.ErrEmptyCredential
	}
	m.saves++
	m.rec = &rec
	return nil
}

func (m *MemoryCredentialStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.delete++
	m.rec = nil
	return nil
}

// Stored returns the current record and whether one exists.
func (m *MemoryCredentialStorage) Stored() (domainauth.StoredCredential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return domainauth.StoredCredential{}, false
	}
	return *m.rec, true
}

// Saves returns the number of successful Save calls.
func (m *MemoryCredentialStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Deletes returns the number of successful Delete calls.
func (m *MemoryCredentialStorage) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delete
}

// ErrInvalidLogin is returned by StubAuthAPI for a password mismatch.
var ErrInvalidLogin = errors.New("invalid username or password")

// StubAuthAPI simulates the backend auth endpoints with deterministic responses.
type StubAuthAPI struct {
	LoginFunc    func(ctx context.Context, req domainauth.LoginRequest) (domainauth.LoginResponse, error)
	LogoutFunc   func(ctx context.Context) error
	UserInfoFunc func(ctx context.Context) (domainauth.UserProfile, error)

	// Password accepted by the default Login implementation.
	Password    string
	DefaultUser domainauth.UserProfile

	mu            sync.Mutex
	userInfoCalls int
}

// NewStubAuthAPI creates a StubAuthAPI with sensible defaults.
func NewStubAuthAPI() *StubAuthAPI {
	return &StubAuthAPI{
		Password: "secret",
		DefaultUser: domainauth.UserProfile{
			ID:       "1",
			Username: "mock.user",
			Email:    "mock.user@example.com",
		},
	}
}

func (s *StubAuthAPI) Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.LoginResponse, error) {
	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, req)
	}
	if req.Password != s.Password {
		return domainauth.LoginResponse{}, ErrInvalidLogin
	}
	user := s.DefaultUser
	if req.Username != "" {
		user.Username = req.Username
	}
	return domainauth.LoginResponse{Token: "mock_token_" + user.ID, User: user, ExpiresIn: 3600}, nil
}

func (s *StubAuthAPI) Logout(ctx context.Context) error {
	if s.LogoutFunc != nil {
		return s.LogoutFunc(ctx)
	}
	return nil
}

func (s *StubAuthAPI) UserInfo(ctx context.Context) (domainauth.UserProfile, error) {
	s.mu.Lock()
	s.userInfoCalls++
	s.mu.Unlock()
	if s.UserInfoFunc != nil {
		return s.UserInfoFunc(ctx)
	}
	return s.DefaultUser, nil
}

// UserInfoCalls returns how many times UserInfo was invoked.
func (s *StubAuthAPI) UserInfoCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userInfoCalls
}
