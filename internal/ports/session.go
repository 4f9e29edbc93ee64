package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters and internal/api; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
)

// ErrCredentialNotFound is returned by CredentialStorage.Load when no credential is persisted.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStorage is the durable store holding the single persisted credential key.
// Only the session store reads or writes it.
type CredentialStorage interface {
	// Load returns the persisted record, or ErrCredentialNotFound.
	Load(ctx context.Context) (domainauth.StoredCredential, error)
	// Save overwrites the persisted record.
	Save(ctx context.Context, rec domainauth.StoredCredential) error
	// Delete removes the record; deleting a missing record is not an error.
	Delete(ctx context.Context) error
}

// AuthAPI is the backend surface used by the auth service.
type AuthAPI interface {
	Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.LoginResponse, error)
	Logout(ctx context.Context) error
	UserInfo(ctx context.Context) (domainauth.UserProfile, error)
}

// CredentialSource exposes the current credential to the request pipeline.
type CredentialSource interface {
	Credential() domainauth.Credential
}

// SessionInvalidator clears the session when the backend rejects the credential.
type SessionInvalidator interface {
	ClearCredential(ctx context.Context) error
}

// ClientSession is the view of the session the request pipeline needs.
type ClientSession interface {
	CredentialSource
	SessionInvalidator
}
