package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/target/mmk-ui-client/config"
	"github.com/target/mmk-ui-client/internal/adapters/filestore"
	redisstore "github.com/target/mmk-ui-client/internal/adapters/redis"
	"github.com/target/mmk-ui-client/internal/ports"
)

// StorageDeps groups what the credential storage backends need.
type StorageDeps struct {
	Storage config.StorageConfig
	Redis   config.RedisConfig
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

// CredentialStorage is the selected backend plus a release hook.
type CredentialStorage struct {
	Storage ports.CredentialStorage
	Backend string
	Close   func() error
}

// BuildCredentialStorage opens the backend selected by STORAGE_BACKEND.
func BuildCredentialStorage(ctx context.Context, deps StorageDeps) (CredentialStorage, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	switch deps.Storage.Backend {
	case config.StorageBackendRedis:
		client, err := ConnectRedis(ctx, RedisOptions{Config: deps.Redis, Logger: logger})
		if err != nil {
			return CredentialStorage{}, fmt.Errorf("connect redis: %w", err)
		}
		store := redisstore.NewCredentialStore(redisstore.CredentialStoreOptions{
			Client: client,
			Prefix: deps.Storage.Prefix,
			Key:    deps.Storage.Key,
			Clock:  clock,
		})
		logger.InfoContext(ctx, "credential storage ready", "backend", config.StorageBackendRedis, "key", store.Key())
		return CredentialStorage{Storage: store, Backend: config.StorageBackendRedis, Close: client.Close}, nil

	case config.StorageBackendFile, "":
		store, err := filestore.NewCredentialStore(filestore.CredentialStoreOptions{
			Dir:   deps.Storage.Path,
			Key:   deps.Storage.Key,
			Clock: clock,
		})
		if err != nil {
			return CredentialStorage{}, fmt.Errorf("open file storage: %w", err)
		}
		logger.InfoContext(ctx, "credential storage ready", "backend", config.StorageBackendFile, "dir", deps.Storage.Path)
		return CredentialStorage{Storage: store, Backend: config.StorageBackendFile, Close: func() error { return nil }}, nil

	default:
		return CredentialStorage{}, fmt.Errorf("unsupported storage backend %q", deps.Storage.Backend)
	}
}
