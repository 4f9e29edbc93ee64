package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

func newStore(t *testing.T, clock clockwork.Clock) *CredentialStore {
	t.Helper()
	store, err := NewCredentialStore(CredentialStoreOptions{Dir: t.TempDir(), Clock: clock})
	require.NoError(t, err)
	return store
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store := newStore(t, nil)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ports.ErrCredentialNotFound)

	require.NoError(t, store.Save(ctx, domainauth.StoredCredential{Value: "mock_token_1"}))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.Credential("mock_token_1"), got.Value)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"mock_token_1"}`, string(raw))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, filePerm, info.Mode().Perm())
}

func TestCredentialStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewCredentialStore(CredentialStoreOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, domainauth.StoredCredential{Value: "tok"}))

	second, err := NewCredentialStore(CredentialStoreOptions{Dir: dir})
	require.NoError(t, err)
	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.Credential("tok"), got.Value)
}

func TestCredentialStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	store := newStore(t, clock)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.StoredCredential{Value: "tok", ExpiresAt: clock.Now().Add(time.Hour)}))

	_, err := store.Load(ctx)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCredentialNotFound)
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "expired file should be removed")
}

func TestCredentialStore_Corrupt(t *testing.T) {
	store := newStore(t, nil)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{oops"), 0o600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrCredentialNotFound)
}

func TestCredentialStore_DeleteIdempotent(t *testing.T) {
	store := newStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Save(ctx, domainauth.StoredCredential{Value: "tok"}))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files or records should remain")
}

func TestNewCredentialStore_Validation(t *testing.T) {
	_, err := NewCredentialStore(CredentialStoreOptions{})
	require.Error(t, err)

	_, err = NewCredentialStore(CredentialStoreOptions{Dir: t.TempDir(), Key: "../escape"})
	require.Error(t, err)
}

func TestCredentialStore_CanceledContext(t *testing.T) {
	store := newStore(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, domainauth.StoredCredential{Value: "tok"}), context.Canceled)
}
