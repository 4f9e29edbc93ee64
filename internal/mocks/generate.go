// Package mocks provides mock implementations of the session ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	storage := mocks.NewMockCredentialStorage(ctrl)
//	storage.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
package mocks

// Generate mock for CredentialStorage interface from internal/ports package.
// This creates MockCredentialStorage with methods Load, Save, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_storage_mock.go github.com/target/mmk-ui-client/internal/ports CredentialStorage

// Generate mock for AuthAPI interface from internal/ports package.
// This creates MockAuthAPI with methods Login, Logout, UserInfo.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/target/mmk-ui-client/internal/ports AuthAPI
