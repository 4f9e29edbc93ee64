package api

// Package api holds the typed backend modules built on the request pipeline.

import (
	"context"

	"github.com/target/mmk-ui-client/internal/apiclient"
	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/ports"
)

// Backend paths for the auth module.
const (
	PathLogin    = "/auth/login"
	PathLogout   = "/auth/logout"
	PathUserInfo = "/user/info"
)

var _ ports.AuthAPI = (*AuthAPI)(nil)

// AuthAPI calls the backend auth endpoints.
type AuthAPI struct {
	client *apiclient.Client
}

// NewAuthAPI wraps client.
func NewAuthAPI(client *apiclient.Client) *AuthAPI {
	return &AuthAPI{client: client}
}

// Login posts the credentials without an Authorization header.
func (a *AuthAPI) Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.LoginResponse, error) {
	return apiclient.Post[domainauth.LoginResponse](ctx, a.client, PathLogin, req, apiclient.RequestConfig{SkipAuth: true})
}

// Logout ends the backend session. Failures are reported by the caller.
func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := a.client.Post(ctx, PathLogout, nil, apiclient.RequestConfig{SkipErrorHandling: true})
	return err
}

// UserInfo returns the current user's profile.
func (a *AuthAPI) UserInfo(ctx context.Context) (domainauth.UserProfile, error) {
	return apiclient.Get[domainauth.UserProfile](ctx, a.client, PathUserInfo, apiclient.RequestConfig{})
}
