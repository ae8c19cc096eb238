package config

import (
	"testing"
	"time"

	"shelfwise/internal/insights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "0.18", cfg.VAT().String())
	assert.Equal(t, 3, cfg.FinancialYears)
	assert.Equal(t, 5*time.Minute, cfg.InsightsCacheTTL())
	assert.Equal(t, 30*time.Minute, cfg.PendingAdjustmentTTL())
	assert.Equal(t, 24*time.Hour, cfg.DigestInterval())
	assert.Equal(t, insights.DefaultConfig(), cfg.InsightsDefaults())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("INSIGHTS_LOW_MARGIN_PERCENT", "22.5")
	t.Setenv("INSIGHTS_LOCALE", "he")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 22.5, cfg.InsightsDefaults().LowMarginPercent)
	assert.Equal(t, "he", cfg.InsightsDefaults().Locale)
	assert.True(t, cfg.IsProduction())
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Asia/Jerusalem"
	assert.Equal(t, "Asia/Jerusalem", cfg.Location().String())
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, (&Config{}).AllowedOrigins())
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		(&Config{CORSOrigins: "https://a.example,https://b.example"}).AllowedOrigins())
}
