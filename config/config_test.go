package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "WORKING_DAYS", "CORS_ALLOWED_ORIGINS", "AUDIT_ENABLED", "AUDIT_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "finance.db", cfg.DBPath)
	assert.Equal(t, 22, cfg.WorkingDays)
	assert.True(t, cfg.AuditEnabled)
	assert.Equal(t, "@hourly", cfg.AuditSchedule)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKING_DAYS", "20")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AUDIT_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 20, cfg.WorkingDays)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AuditEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBackOrFail(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("WORKING_DAYS", "40")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKING_DAYS")
	assert.NotContains(t, err.Error(), "PORT", "unparsable PORT falls back to the default")
}

func TestRegisterFlags_OverrideEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load()
	require.NoError(t, err)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "7000", "-db", ":memory:"}))

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.NoError(t, cfg.Validate())
}
