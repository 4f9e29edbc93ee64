package config

import (
	"strings"
	"time"
)

// Supported credential storage backends.
const (
	StorageBackendFile  = "file"
	StorageBackendRedis = "redis"
)

// StorageConfig selects where the session credential is persisted.
type StorageConfig struct {
	// Backend is "file" (default) or "redis".
	Backend string `env:"STORAGE_BACKEND" envDefault:"file"`

	// Path is the directory used by the file backend.
	Path string `env:"STORAGE_PATH" envDefault:".mmk-console"`

	// Key names the persisted credential ("token" unless overridden).
	Key string `env:"STORAGE_KEY" envDefault:"token"`

	// Prefix namespaces the Redis key.
	Prefix string `env:"STORAGE_PREFIX" envDefault:"mmk:"`

	// TTL bounds how long a credential is kept when the backend gives no expiry.
	// Zero keeps it until logout or a 401.
	TTL time.Duration `env:"STORAGE_TTL" envDefault:"0"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = StorageBackendFile
	}
	s.Key = strings.TrimSpace(s.Key)
	if s.Key == "" {
		s.Key = "token"
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
