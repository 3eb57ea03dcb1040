package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.DefaultOwnerID)
	assert.Equal(t, 5, cfg.TopPerformers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/kicks.db")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("FETCH_RATE_LIMIT", "2.5")
	t.Setenv("FETCH_TIMEOUT", "750ms")
	t.Setenv("VALUATION_INTERVAL", "1h")
	t.Setenv("RULE_CACHE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/kicks.db", cfg.DBPath)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.FetchRateLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.ValuationInterval)
	assert.Equal(t, 256, cfg.RuleCacheSize, "unparseable values fall back to the default")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"empty db path", "DB_PATH", ""},
		{"empty owner", "DEFAULT_OWNER_ID", ""},
		{"negative rate", "FETCH_RATE_LIMIT", "-1"},
		{"zero burst", "FETCH_BURST", "0"},
		{"zero cache", "RULE_CACHE_SIZE", "0"},
		{"zero top performers", "TOP_PERFORMERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
