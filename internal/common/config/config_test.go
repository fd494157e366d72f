package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name:    "default_values",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Backup.Interval)
				assert.Equal(t, "local", cfg.Blob.Driver)
				assert.Equal(t, int64(534351), cfg.Chain.ChainID)
				assert.Equal(t, "backup:watermark", cfg.Backup.WatermarkKey)
				assert.True(t, cfg.Redis.Enabled)
				assert.Equal(t, 5*time.Minute, cfg.Attestation.WriteTimeout)
				assert.Equal(t, 30*time.Second, cfg.Analytics.DashboardCacheTTL)
			},
		},
		{
			name: "custom_backup_and_chain",
			envVars: map[string]string{
				"BACKUP_INTERVAL":       "5s",
				"ATTESTATIONS_CHAIN_ID": "534352",
				"BLOB_DRIVER":           "http",
				"BLOB_BASE_URL":         "https://blob.example.com",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5*time.Second, cfg.Backup.Interval)
				assert.Equal(t, int64(534352), cfg.Chain.ChainID)
				assert.Equal(t, "https://blob.example.com", cfg.Blob.BaseURL)
			},
		},
		{
			name:    "http_driver_without_base_url",
			envVars: map[string]string{"BLOB_DRIVER": "http"},
			wantErr: "BLOB_BASE_URL",
		},
		{
			name:    "unknown_driver",
			envVars: map[string]string{"BLOB_DRIVER": "s3"},
			wantErr: "unknown BLOB_DRIVER",
		},
		{
			name:    "zero_interval",
			envVars: map[string]string{"BACKUP_INTERVAL": "0s"},
			wantErr: "BACKUP_INTERVAL",
		},
		{
			name:    "invalid_port",
			envVars: map[string]string{"PORT": "not-a-number"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Postgres.Host = "db"
	cfg.Postgres.Port = 5433
	cfg.Postgres.User = "u"
	cfg.Postgres.Password = "p"
	cfg.Postgres.Database = "swagly"
	cfg.Postgres.SSLMode = "require"

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=swagly sslmode=require", cfg.DSN())
}
