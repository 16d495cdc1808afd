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
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "card-submissions", cfg.KafkaSubmissionsTopic)
	assert.Equal(t, "card-resolutions", cfg.KafkaResolutionsTopic)
	assert.Equal(t, 25, cfg.JobProgressInterval)
	assert.Equal(t, time.Hour, cfg.JobResultTTL)
	assert.Equal(t, 5*time.Minute, cfg.DatabaseConnMaxLifetime)
	assert.Equal(t, 500*time.Millisecond, cfg.KafkaRetryBackoff)
	assert.Equal(t, 1.0, cfg.OtelSampleRatio)
	assert.Equal(t, 30*time.Second, cfg.KafkaMaxRetryBackoff)
	assert.Equal(t, 10485760, cfg.ImportMaxUploadBytes)
	assert.Empty(t, cfg.CrossRefOrgIDs)
	assert.Nil(t, cfg.Orgs())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PRETTY_LOGS", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ORG_ID", "7")
	t.Setenv("CROSS_REF_ORG_IDS", "7,9")
	t.Setenv("JOB_RESULT_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.PrettyLogs)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.JobResultTTL)
	assert.Equal(t, []int64{7, 9}, cfg.Orgs())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eighty")
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "KAFKA_SUBMISSIONS_TOPIC"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=staging-submissions\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging-submissions", cfg.KafkaSubmissionsTopic)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "a missing env file is not an error")
}
