package auth

// Package auth contains domain-level types for the client session.
// It is pure and free of transport/storage concerns.

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrEmptyCredential is returned when an empty credential is stored or decoded.
var ErrEmptyCredential = errors.New("credential is empty")

// Credential is the opaque bearer token identifying an authenticated session.
// The zero value means no credential is held.
type Credential string

// IsZero reports whether no credential is present.
func (c Credential) IsZero() bool { return strings.TrimSpace(string(c)) == "" }

// Redacted returns a log-safe representation of the credential.
func (c Credential) Redacted() string {
	if c.IsZero() {
		return ""
	}
	const keep = 4
	s := string(c)
	if len(s) <= keep {
		return "****"
	}
	return s[:keep] + "****"
}

// UserProfile is the authenticated user as returned by the backend.
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// GuestName is shown in place of a username when no profile is loaded.
const GuestName = "Not signed in"

// DisplayName returns the username, or GuestName for a nil or nameless profile.
func (p *UserProfile) DisplayName() string {
	if p == nil || p.Username == "" {
		return GuestName
	}
	return p.Username
}

// Session is a point-in-time snapshot of the client session.
// Profile != nil implies Credential is non-zero.
type Session struct {
	Credential Credential
	Profile    *UserProfile
}

// IsAuthenticated reports whether the snapshot holds a credential.
func (s Session) IsAuthenticated() bool { return !s.Credential.IsZero() }

// LoginRequest carries the login form values.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
	Captcha  string `json:"captcha,omitempty"`
}

// LoginResponse is the business payload of a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expiresIn,omitempty"` // seconds
}

// StoredCredential is the persisted form of the credential.
// A zero ExpiresAt means the record never expires.
type StoredCredential struct {
	Value     Credential
	ExpiresAt time.Time
}

// Expired reports whether the record has an expiry at or before now.
func (s StoredCredential) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// storedWire is the on-disk shape: {"value": "...", "expire": <unix-ms>}.
type storedWire struct {
	Value  string `json:"value"`
	Expire *int64 `json:"expire,omitempty"`
}

// MarshalJSON encodes the record in its persisted wire shape.
func (s StoredCredential) MarshalJSON() ([]byte, error) {
	w := storedWire{Value: string(s.Value)}
	if !s.ExpiresAt.IsZero() {
		ms := s.ExpiresAt.UnixMilli()
		w.Expire = &ms
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the persisted wire shape. A record without a value is rejected.
func (s *StoredCredential) UnmarshalJSON(data []byte) error {
	var w storedWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if strings.TrimSpace(w.Value) == "" {
		return ErrEmptyCredential
	}
	s.Value = Credential(w.Value)
	s.ExpiresAt = time.Time{}
	if w.Expire != nil {
		s.ExpiresAt = time.UnixMilli(*w.Expire)
	}
	return nil
}
