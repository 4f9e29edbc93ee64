package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

func TestMemoryCredentialStorage_SaveAndLoad(t *testing.T) {
	store := NewMemoryCredentialStorage()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ports.ErrCredentialNotFound)

	require.NoError(t, store.Save(ctx, domainauth.StoredCredential{Value: "tok"}))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.Credential("tok"), got.Value)
	assert.Equal(t, 1, store.Saves())
}

func TestMemoryCredentialStorage_SaveEmpty(t *testing.T) {
	store := NewMemoryCredentialStorage()
	err := store.Save(context.Background(), domainauth.StoredCredential{})
	assert.ErrorIs(t, err, domainauth.ErrEmptyCredential)
}

func TestMemoryCredentialStorage_DeleteIdempotent(t *testing.T) {
	store := NewMemoryCredentialStorage()
	ctx := context.Background()
	store.Seed(domainauth.StoredCredential{Value: "tok"})

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, ok := store.Stored()
	assert.False(t, ok)
	assert.Equal(t, 2, store.Deletes())
}

func TestMemoryCredentialStorage_InjectedErrors(t *testing.T) {
	boom := errors.New("disk full")
	store := &MemoryCredentialStorage{SaveErr: boom, LoadErr: boom, DeleteErr: boom}
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, domainauth.StoredCredential{Value: "tok"}), boom)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Delete(ctx), boom)
}

func TestStubAuthAPI_Defaults(t *testing.T) {
	api := NewStubAuthAPI()
	ctx := context.Background()

	resp, err := api.Login(ctx, domainauth.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "mock_token_1", resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	_, err = api.Login(ctx, domainauth.LoginRequest{Username: "alice", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidLogin)

	profile, err := api.UserInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock.user", profile.Username)
	assert.Equal(t, 1, api.UserInfoCalls())
	assert.NoError(t, api.Logout(ctx))
}
