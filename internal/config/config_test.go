package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"ENGCOACH_DB_DRIVER", "ENGCOACH_DB_DSN", "ENGCOACH_DATA_DIR", "ENGCOACH_TIMEZONE", "ENGCOACH_QUIZ_LENGTH", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, filepath.Join("data", "engcoach.db"), cfg.DBDSN)
	assert.Equal(t, 10, cfg.QuizLength)
	assert.Equal(t, 80, cfg.PoolSize)
	assert.False(t, cfg.GradingEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENGCOACH_DB_DRIVER", "postgres")
	t.Setenv("ENGCOACH_DB_DSN", "postgres://localhost/engcoach?sslmode=disable")
	t.Setenv("ENGCOACH_TIMEZONE", "Asia/Tokyo")
	t.Setenv("ENGCOACH_QUIZ_LENGTH", "5")
	t.Setenv("ENGCOACH_RECONCILE_HOUR", "99")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5, cfg.QuizLength)
	assert.Equal(t, 3, cfg.ReconcileHour, "out of range values keep the default")
	assert.True(t, cfg.GradingEnabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBDriver = "mysql"
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidDriver))

	cfg = DefaultConfig()
	cfg.DBDriver = "postgres"
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidDriver))

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidTimezone))

	cfg = DefaultConfig()
	cfg.Timezone = ""
	require.NoError(t, cfg.Validate())
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
