package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/ports"
)

// ErrNoCredential is returned when a profile is set on a session without a credential.
var ErrNoCredential = errors.New("no credential held")

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	Storage ports.CredentialStorage
	Logger  *slog.Logger
	// TTL applied to persisted credentials; zero means no expiry.
	TTL     time.Duration
	Clock   clockwork.Clock
	Metrics *metrics.SessionMetrics
}

// SessionStore owns the credential and user profile for the running client.
// Memory and durable storage are kept in step: storage is written first, and
// memory only changes once storage has accepted the write.
type SessionStore struct {
	storage ports.CredentialStorage
	logger  *slog.Logger
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *metrics.SessionMetrics

	mu         sync.RWMutex
	credential domainauth.Credential
	profile    *domainauth.UserProfile
}

// NewSessionStore constructs an empty SessionStore. Call Restore to load a persisted credential.
func NewSessionStore(opts SessionStoreOptions) (*SessionStore, error) {
	if opts.Storage == nil {
		return nil, errors.New("credential storage is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &SessionStore{
		storage: opts.Storage,
		logger:  logger.With("component", "session_store"),
		ttl:     opts.TTL,
		clock:   clock,
		metrics: opts.Metrics,
	}
	s.metrics.SetAuthenticated(false)
	return s, nil
}

// Restore loads the persisted credential, if any. Missing, expired or corrupt
// data leaves the session empty and is only logged.
func (s *SessionStore) Restore(ctx context.Context) {
	rec, err := s.storage.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrCredentialNotFound) {
			s.logger.WarnContext(ctx, "credential restore failed; starting unauthenticated", "error", err)
		}
		return
	}
	if rec.Value.IsZero() || rec.Expired(s.clock.Now()) {
		s.logger.InfoContext(ctx, "persisted credential unusable; discarding")
		if delErr := s.storage.Delete(ctx); delErr != nil {
			s.logger.WarnContext(ctx, "discard persisted credential failed", "error", delErr)
		}
		return
	}

	s.mu.Lock()
	s.credential = rec.Value
	s.profile = nil
	s.mu.Unlock()

	s.metrics.SetAuthenticated(true)
	s.logger.DebugContext(ctx, "credential restored", "credential", rec.Value.Redacted())
}

// SetCredential persists c with the configured TTL and then holds it in memory.
func (s *SessionStore) SetCredential(ctx context.Context, c domainauth.Credential) error {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.clock.Now().Add(s.ttl)
	}
	return s.SetCredentialWithExpiry(ctx, c, expiresAt)
}

// SetCredentialWithExpiry is SetCredential with an explicit expiry; zero means none.
func (s *SessionStore) SetCredentialWithExpiry(ctx context.Context, c domainauth.Credential, expiresAt time.Time) error {
	if c.IsZero() {
		return domainauth.ErrEmptyCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(ctx, domainauth.StoredCredential{Value: c, ExpiresAt: expiresAt}); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	if s.credential != c {
		s.profile = nil
	}
	s.credential = c
	s.metrics.SetAuthenticated(true)
	return nil
}

// ClearCredential drops the credential and profile from memory and storage.
// It is idempotent. Memory is always cleared; the storage error, if any, is returned.
func (s *SessionStore) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = ""
	s.profile = nil
	s.metrics.SetAuthenticated(false)

	if err := s.storage.Delete(ctx); err != nil {
		return fmt.Errorf("delete persisted credential: %w", err)
	}
	return nil
}

// SetProfile stores the loaded user profile. It fails with ErrNoCredential when
// no credential is held.
func (s *SessionStore) SetProfile(p domainauth.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credential.IsZero() {
		return ErrNoCredential
	}
	s.profile = &p
	return nil
}

// IsAuthenticated reports whether a credential is held.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.credential.IsZero()
}

// Credential returns the held credential, or "".
func (s *SessionStore) Credential() domainauth.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Profile returns a copy of the loaded profile, or nil.
func (s *SessionStore) Profile() *domainauth.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Snapshot returns a consistent copy of the session.
func (s *SessionStore) Snapshot() domainauth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := domainauth.Session{Credential: s.credential}
	if s.profile != nil {
		p := *s.profile
		sess.Profile = &p
	}
	return sess
}
