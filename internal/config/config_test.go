package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("POSITION_BACKEND", "")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "/app/web", cfg.HTTP.UIStaticDir)
	assert.True(t, cfg.HTTP.UIEnabled)
	assert.Equal(t, int64(2048)<<20, cfg.HTTP.MaxUploadBytes())
	assert.Equal(t, "/app/data", cfg.System.DataDir)
	assert.Equal(t, filepath.Join("/app/data", "subview.db"), cfg.Position.DBPath)
	assert.Equal(t, filepath.Join("/app/data", "uploads"), cfg.UploadDir())
	assert.Equal(t, "sqlite", cfg.Position.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Position.TTL())
	assert.Equal(t, "0 4 * * *", cfg.Position.PurgeCron)
}

func TestNewFromEnv_FromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/subview-data")
	t.Setenv("DB_PATH", "")
	t.Setenv("SUBVIEW_ADDR", "127.0.0.1:9000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("UI_ENABLED", "false")
	t.Setenv("POSITION_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("POSITION_TTL_DAYS", "7")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.HTTP.UIEnabled)
	assert.Equal(t, filepath.Join("/tmp/subview-data", "subview.db"), cfg.Position.DBPath)

	s := cfg.Position.Settings()
	assert.Equal(t, "redis", s.Backend)
	assert.Equal(t, "redis:6379", s.Redis.Addr)
	assert.Equal(t, 2, s.Redis.DB)
	assert.Equal(t, 7*24*time.Hour, s.TTL)
}

func TestNewFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "backend", key: "POSITION_BACKEND", val: "etcd"},
		{name: "ttl", key: "POSITION_TTL_DAYS", val: "0"},
		{name: "cron", key: "PURGE_CRON", val: "every day"},
		{name: "upload", key: "MAX_UPLOAD_MB", val: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := NewFromEnv()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SUBVIEW_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("SUBVIEW_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("SUBVIEW_DOTENV_PROBE"))

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-file", os.Getenv("SUBVIEW_DOTENV_PROBE"))
}

func TestNewFromEnv_Options(t *testing.T) {
	t.Setenv("SUBVIEW_ADDR", ":9000")
	t.Setenv("MEDIA_DIR", "/srv/media")

	cfg, err := NewFromEnv(WithAddr("127.0.0.1:7000"), WithMediaDir(""))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.HTTP.Addr)
	assert.Equal(t, "/srv/media", cfg.Media.Dir)

	cfg, err = NewFromEnv(WithMediaDir("/mnt/shows"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "/mnt/shows", cfg.Media.Dir)
}
