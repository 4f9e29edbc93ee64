package filestore

// Package filestore persists the credential as a small JSON file on local disk.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonboulle/clockwork"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

const (
	dirPerm  fs.FileMode = 0o700
	filePerm fs.FileMode = 0o600
)

var _ ports.CredentialStorage = (*CredentialStore)(nil)

// CredentialStore keeps the credential in <Dir>/<Key>.json.
// Writes go to a temp file that is renamed into place, so readers never see a partial record.
type CredentialStore struct {
	path  string
	clock clockwork.Clock
	mu    sync.Mutex
}

// CredentialStoreOptions configures a CredentialStore.
type CredentialStoreOptions struct {
	Dir   string
	Key   string // defaults to "token"
	Clock clockwork.Clock
}

// NewCredentialStore creates the storage directory if needed.
func NewCredentialStore(opts CredentialStoreOptions) (*CredentialStore, error) {
	if opts.Dir == "" {
		return nil, errors.New("storage dir is required")
	}
	key := opts.Key
	if key == "" {
		key = "token"
	}
	if filepath.Base(key) != key {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}
	if err := os.MkdirAll(opts.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CredentialStore{path: filepath.Join(opts.Dir, key+".json"), clock: clock}, nil
}

// Path returns the file backing the store.
func (s *CredentialStore) Path() string { return s.path }

func (s *CredentialStore) Load(ctx context.Context) (domainauth.StoredCredential, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.StoredCredential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domainauth.StoredCredential{}, ports.ErrCredentialNotFound
		}
		return domainauth.StoredCredential{}, fmt.Errorf("read credential: %w", err)
	}

	var rec domainauth.StoredCredential
	if err := json.Unmarshal(data, &rec); err != nil {
		return domainauth.StoredCredential{}, fmt.Errorf("decode credential: %w", err)
	}

	if rec.Expired(s.clock.Now()) {
		if err := s.remove(); err != nil {
			return domainauth.StoredCredential{}, fmt.Errorf("cleanup expired credential: %w", err)
		}
		return domainauth.StoredCredential{}, ports.ErrCredentialNotFound
	}
	return rec, nil
}

func (s *CredentialStore) Save(ctx context.Context, rec domainauth.StoredCredential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Value.IsZero() {
		return domainauth.ErrEmptyCredential
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(data)
}

func (s *CredentialStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *CredentialStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) writeAtomic(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credential-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(fmt.Errorf("write temp file: %w", err), tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return errors.Join(fmt.Errorf("chmod temp file: %w", err), tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return errors.Join(fmt.Errorf("sync temp file: %w", err), tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("close temp file: %w", err), os.Remove(tmpName))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Join(fmt.Errorf("rename credential file: %w", err), os.Remove(tmpName))
	}
	return nil
}
