// internal/config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	var got *Config
	cmd := NewCommand(cfg, "test", func(_ context.Context, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return got, err
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "0.0.0.0", cfg.Bind)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "games", cfg.GameRoot)
	assert.Equal(t, 10*time.Second, cfg.AutoplayDelay)
	assert.Equal(t, "trivia_actions", cfg.RedisQueue)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TRIVIA_PORT", "9000")
	t.Setenv("TRIVIA_AUTOPLAY_DELAY", "3s")
	t.Setenv("TRIVIA_GAME_ROOT", "/srv/games")

	cfg, err := execute(t, "--port", "9100", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port, "explicit flag wins")
	assert.Equal(t, 3*time.Second, cfg.AutoplayDelay)
	assert.Equal(t, "/srv/games", cfg.GameRoot)
	assert.True(t, cfg.Verbose)
}

func TestUnderscoreFlagsNormalize(t *testing.T) {
	cfg, err := execute(t, "--redis_addr", "localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidate(t *testing.T) {
	_, err := execute(t, "--port", "0")
	assert.ErrorContains(t, err, "invalid port")

	_, err = execute(t, "--autoplay-delay", "-1s")
	assert.ErrorContains(t, err, "invalid autoplay delay")

	cfg := &Config{Bind: "::1", Port: 8080, GameRoot: "games"}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "[::1]:8080", cfg.Addr())
}

func TestHistorianCommand(t *testing.T) {
	t.Setenv("TRIVIA_DATABASE_URL", "postgres://localhost/trivia")
	t.Setenv("TRIVIA_BATCH_SIZE", "50")

	cfg := &HistorianConfig{}
	var got *HistorianConfig
	cmd := NewHistorianCommand(cfg, "test", func(_ context.Context, c *HistorianConfig) error {
		got = c
		return nil
	})
	cmd.SetArgs([]string{"--flush_delay", "2s"})
	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "localhost:6379", got.RedisAddr)
	assert.Equal(t, "postgres://localhost/trivia", got.DatabaseURL)
	assert.Equal(t, 50, got.BatchSize)
	assert.Equal(t, 2*time.Second, got.FlushDelay)
	assert.Equal(t, "trivia_actions", got.RedisQueue)
}

func TestHistorianRequiresDatabase(t *testing.T) {
	cmd := NewHistorianCommand(&HistorianConfig{}, "test", func(context.Context, *HistorianConfig) error { return nil })
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
