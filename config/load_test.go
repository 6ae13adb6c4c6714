package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "clover", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.DatabaseConnMaxLifetime)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"GET", "POST"}, cfg.AllowMethods)
	assert.Equal(t, 0.1, cfg.EstimationStaleFraction)
	assert.Equal(t, 3, cfg.EstimationEMIterations)
	assert.True(t, cfg.DatabaseMigrationAutoRollback)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.DatabasePassword)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("TOTAL_RECORDS_CACHE_TTL", "30s")
	t.Setenv("ESTIMATION_STALE_FRACTION", "0.25")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, 30*time.Second, cfg.TotalRecordsCacheTTL)
	assert.Equal(t, 0.25, cfg.EstimationStaleFraction)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                      "eighty",
		"PRETTY_LOGS":               "sometimes",
		"DB_CONN_MAX_LIFETIME":      "forever",
		"ESTIMATION_STALE_FRACTION": "ten percent",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), value)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("CLOVER_TEST_ONLY=1\nAPP_NAME=clover-from-file\n"), 0o600))
	t.Setenv("APP_NAME", "clover-from-env")

	cfg, err := Load(file, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	// godotenv never overrides variables that are already set
	assert.Equal(t, "clover-from-env", cfg.AppName)
	assert.Equal(t, "1", os.Getenv("CLOVER_TEST_ONLY"))
	os.Unsetenv("CLOVER_TEST_ONLY")
}
