// internal/config/historian.go
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// HistorianConfig configures the action log consumer.
type HistorianConfig struct {
	RedisAddr   string
	RedisDB     int
	RedisQueue  string
	DatabaseURL string
	BatchSize   int
	FlushDelay  time.Duration
	Verbose     bool
}

func (c *HistorianConfig) Validate() error {
	if c.RedisAddr == "" {
		return errors.New("--redis-addr is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("--database-url is required")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.RedisDB)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.BatchSize)
	}
	if c.FlushDelay <= 0 {
		return fmt.Errorf("invalid flush delay: %s", c.FlushDelay)
	}
	return nil
}

// NewHistorianCommand builds the historian's root command. It reads the same TRIVIA_* variables as the server.
func NewHistorianCommand(cfg *HistorianConfig, version string, run func(ctx context.Context, cfg *HistorianConfig) error) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:     "trivia-historian",
		Short:   "Persists the trivia action log from redis to postgres.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	normalize(fs)

	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: TRIVIA_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database index (env: TRIVIA_REDIS_DB)")
	fs.StringVar(&cfg.RedisQueue, "redis-queue", "trivia_actions", "redis list holding action records (env: TRIVIA_REDIS_QUEUE)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres URL (env: TRIVIA_DATABASE_URL)")
	fs.IntVar(&cfg.BatchSize, "batch-size", 20, "records per insert batch (env: TRIVIA_BATCH_SIZE)")
	fs.DurationVar(&cfg.FlushDelay, "flush-delay", 500*time.Millisecond, "longest wait before a partial batch is written (env: TRIVIA_FLUSH_DELAY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display debug output (env: TRIVIA_VERBOSE)")

	bindEnv(v, fs)
	finish(cmd, "trivia-historian")
	return cmd
}
