package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		// Empty token disables admin checks (local development)
		AdminToken string `env:"ADMIN_TOKEN" envDefault:""`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
		Database        string        `env:"POSTGRES_DB" envDefault:"swagly"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Chain struct {
		RPCURL          string `env:"CHAIN_RPC_URL" envDefault:"https://sepolia-rpc.scroll.io"`
		ChainID         int64  `env:"ATTESTATIONS_CHAIN_ID" envDefault:"534351"`
		ContractAddress string `env:"ATTESTATIONS_CONTRACT_ADDRESS" envDefault:"0xA9fdE7d55Fbc7fD94e361A63860E650521000595"`
		// Hex private key of the attestor wallet, with or without 0x
		AttestorKey  string        `env:"ATTESTOR_WALLET_PRIVATE_KEY" envDefault:""`
		ExplorerURL  string        `env:"CHAIN_EXPLORER_URL" envDefault:"https://sepolia.scrollscan.com"`
		PollInterval time.Duration `env:"CHAIN_POLL_INTERVAL" envDefault:"2s"`
	}

	Blob struct {
		Driver   string        `env:"BLOB_DRIVER" envDefault:"local"` // http, local
		BaseURL  string        `env:"BLOB_BASE_URL" envDefault:""`
		Token    string        `env:"BLOB_READ_WRITE_TOKEN" envDefault:""`
		LocalDir string        `env:"BLOB_LOCAL_DIR" envDefault:"./data/blobs"`
		Timeout  time.Duration `env:"BLOB_TIMEOUT" envDefault:"30s"`
		// Printf template turning a locator into a public URL, e.g. https://%s.ipfs.w3s.link
		PublicURLTemplate string `env:"BLOB_PUBLIC_URL_TEMPLATE" envDefault:""`
	}

	Backup struct {
		Interval         time.Duration `env:"BACKUP_INTERVAL" envDefault:"60s"`
		MaxArtifactBytes int           `env:"BACKUP_MAX_ARTIFACT_BYTES" envDefault:"52428800"`
		AutoStart        bool          `env:"BACKUP_AUTOSTART" envDefault:"false"`
		WatermarkKey     string        `env:"BACKUP_WATERMARK_KEY" envDefault:"backup:watermark"`
	}

	Attestation struct {
		LockTTL      time.Duration `env:"ATTESTATION_LOCK_TTL" envDefault:"2m"`
		CacheTTL     time.Duration `env:"ATTESTATION_CACHE_TTL" envDefault:"1h"`
		WriteTimeout time.Duration `env:"ATTESTATION_WRITE_TIMEOUT" envDefault:"5m"`
	}

	Analytics struct {
		DashboardCacheTTL time.Duration `env:"ANALYTICS_DASHBOARD_CACHE_TTL" envDefault:"30s"`
	}

	Stream struct {
		Enabled  bool   `env:"ATTESTATION_STREAM_ENABLED" envDefault:"false"`
		Key      string `env:"ATTESTATION_STREAM_KEY" envDefault:"swagly:scans"`
		Group    string `env:"ATTESTATION_STREAM_GROUP" envDefault:"swagly_attestors"`
		Consumer string `env:"ATTESTATION_STREAM_CONSUMER" envDefault:"attestor_1"`
	}
}

// DSN builds a lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Database, c.Postgres.SSLMode)
}

// Load reads .env (if present) and the process environment into Config.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Backup.Interval <= 0 {
		return fmt.Errorf("BACKUP_INTERVAL must be positive, got %s", c.Backup.Interval)
	}
	if c.Backup.MaxArtifactBytes <= 0 {
		return fmt.Errorf("BACKUP_MAX_ARTIFACT_BYTES must be positive, got %d", c.Backup.MaxArtifactBytes)
	}
	switch c.Blob.Driver {
	case "http":
		if c.Blob.BaseURL == "" {
			return fmt.Errorf("BLOB_BASE_URL is required for the http blob driver")
		}
	case "local":
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}
	return nil
}
