package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_COLLECTIONS_DB_HOST", "db.internal")

	path := writeConfig(t, `
database:
  postgres:
    host: ${TEST_COLLECTIONS_DB_HOST}
    database: collections
    user: collector
  redis:
    address: localhost:6379
handlers:
  list-applications:
    timeout_ms: 0
  export-collections:
    timeout_ms: 90000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "100-S", cfg.Server.RateLimit)
	assert.Equal(t, 10000, cfg.Fetcher.CacheTTL)
	assert.Equal(t, 500, cfg.Fetcher.SequentialThreshold)
	assert.Equal(t, "collection-applications", cfg.Search.Index)
	assert.Equal(t, "Asia/Kolkata", cfg.Jobs.Timezone)

	assert.Equal(t, 30*time.Second, HandlerTimeout(cfg, HandlerListApplications))
	assert.Equal(t, 90*time.Second, HandlerTimeout(cfg, HandlerExport))
	assert.Equal(t, 30*time.Second, HandlerTimeout(cfg, HandlerSavedFilters))
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing postgres host",
			body: `
database:
  postgres:
    database: collections
    user: collector
  redis:
    address: localhost:6379
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "missing redis",
			body: `
database:
  postgres:
    host: localhost
    database: collections
    user: collector
`,
			wantErr: "database.redis.address is required",
		},
		{
			name: "search enabled without addresses",
			body: `
database:
  postgres:
    host: localhost
    database: collections
    user: collector
  redis:
    address: localhost:6379
search:
  enabled: true
`,
			wantErr: "elasticsearch",
		},
		{
			name: "bad digest schedule",
			body: `
database:
  postgres:
    host: localhost
    database: collections
    user: collector
  redis:
    address: localhost:6379
jobs:
  ptp_digest:
    enabled: true
    schedule: "every morning"
`,
			wantErr: "jobs.ptp_digest.schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestElasticsearchConfig_GetAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://a:9200"}, ElasticsearchConfig{URL: "http://a:9200"}.GetAddresses())
	assert.Equal(t, []string{"http://b:9200"}, ElasticsearchConfig{
		URL:       "http://a:9200",
		Addresses: []string{"http://b:9200"},
	}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
