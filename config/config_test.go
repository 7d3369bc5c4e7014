package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukshaus/family-planner/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFrom("")
	require.NoError(t, err)

	if os.Getenv("STORE_BACKEND") == "" {
		assert.Equal(t, "json", cfg.StoreBackend)
	}
	if os.Getenv("REDIS_TIMEOUT") == "" {
		assert.Equal(t, 5*time.Second, cfg.RedisTimeout)
	}
	if os.Getenv("KEY_PREFIX") == "" {
		assert.Equal(t, "family_planner_", cfg.KeyPrefix)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TIMEOUT", "250ms")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_BUCKET", "backups")

	cfg, err := config.LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 250*time.Millisecond, cfg.RedisTimeout)
	assert.False(t, cfg.S3UseSSL)
	assert.True(t, cfg.S3Enabled())

	sc := cfg.Store()
	assert.Equal(t, "redis", sc.Backend)
	assert.Equal(t, "cache:6380", sc.Redis.Addr)
	assert.Equal(t, 250*time.Millisecond, sc.Redis.Timeout)

	s3 := cfg.S3()
	assert.Equal(t, "minio:9000", s3.Endpoint)
	assert.Equal(t, "backups", s3.Bucket)
	assert.False(t, s3.UseSSL)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATA_DIR=/var/lib/planner\nS3_SECRET_KEY=hunter2\n"), 0o644))
	t.Setenv("DATA_DIR", "")
	os.Unsetenv("DATA_DIR")
	t.Setenv("S3_SECRET_KEY", "")
	os.Unsetenv("S3_SECRET_KEY")
	t.Setenv("SQLITE_PATH", "")

	cfg, err := config.LoadFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/planner", cfg.DataDir)
	assert.Equal(t, filepath.Join("/var/lib/planner", "family.db"), cfg.Store().SqlitePath)

	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "S3SecretKey: ********")
}
