// cmd/historian drains the trivia action log from redis into postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/trivia/internal/cache"
	"github.com/jason-s-yu/trivia/internal/config"
	"github.com/jason-s-yu/trivia/internal/database"
	"github.com/jason-s-yu/trivia/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.HistorianConfig{}
	cobra.CheckErr(config.NewHistorianCommand(cfg, releaseVersion, run).ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *config.HistorianConfig) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	h := historian.New(rdb, database.NewActionStore(pool), cfg.RedisQueue, cfg.BatchSize, cfg.FlushDelay, logger)
	h.Run(ctx)
	return nil
}
