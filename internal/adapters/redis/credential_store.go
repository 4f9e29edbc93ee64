package redis

// Package redis provides Redis-based adapters for the console client.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

// DefaultPrefix namespaces the credential key.
const DefaultPrefix = "mmk:"

var _ ports.CredentialStorage = (*CredentialStore)(nil)

// CredentialStore keeps the single persisted credential in Redis.
// It handles TTL semantics automatically based on the record's ExpiresAt.
type CredentialStore struct {
	client redis.UniversalClient
	key    string
	clock  clockwork.Clock
}

// CredentialStoreOptions configures a CredentialStore.
type CredentialStoreOptions struct {
	Client redis.UniversalClient
	Prefix string // defaults to DefaultPrefix
	Key    string // defaults to "token"
	Clock  clockwork.Clock
}

// NewCredentialStore creates a new Redis-based credential store.
func NewCredentialStore(opts CredentialStoreOptions) *CredentialStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	key := opts.Key
	if key == "" {
		key = "token"
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CredentialStore{client: opts.Client, key: prefix + key, clock: clock}
}

// Key returns the fully qualified Redis key.
func (s *CredentialStore) Key() string { return s.key }

func (s *CredentialStore) Save(ctx context.Context, rec domainauth.StoredCredential) error {
	if rec.Value.IsZero() {
		return domainauth.ErrEmptyCredential
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = rec.ExpiresAt.Sub(s.clock.Now())
		if ttl <= 0 {
			return errors.New("credential is expired")
		}
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *CredentialStore) Load(ctx context.Context) (domainauth.StoredCredential, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.StoredCredential{}, ports.ErrCredentialNotFound
		}
		return domainauth.StoredCredential{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainauth.StoredCredential
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return domainauth.StoredCredential{}, fmt.Errorf("unmarshal credential: %w", unmarshalErr)
	}

	// Redis TTL normally evicts first; a clock skew can still surface a stale record.
	if rec.Expired(s.clock.Now()) {
		if deleteErr := s.Delete(ctx); deleteErr != nil {
			return domainauth.StoredCredential{}, fmt.Errorf("cleanup expired credential: %w", deleteErr)
		}
		return domainauth.StoredCredential{}, ports.ErrCredentialNotFound
	}

	return rec, nil
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
