// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/trivia/internal/cache"
	"github.com/jason-s-yu/trivia/internal/config"
	"github.com/jason-s-yu/trivia/internal/content"
	"github.com/jason-s-yu/trivia/internal/database"
	"github.com/jason-s-yu/trivia/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, run).ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	gs := handlers.NewGameServer(content.NewDirSource(cfg.GameRoot), logger)
	gs.AutoplayDelay = cfg.AutoplayDelay
	gs.PublicURL = cfg.PublicURL

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pub := cache.NewPublisher(rdb, cfg.RedisQueue, logger.WithField("component", "action-log"))
		// the publisher outlives ctx so the game_end records of the shutdown below still get out
		pubCtx, stopPub := context.WithCancel(context.Background())
		pubDone := make(chan struct{})
		go func() {
			defer close(pubDone)
			pub.Run(pubCtx)
		}()
		defer func() {
			stopPub()
			<-pubDone
		}()
		gs.Actions = pub
		logger.Infof("Publishing game actions to redis %s (queue %s)", cfg.RedisAddr, cfg.RedisQueue)
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		gs.Results = database.NewResultStore(pool)
		logger.Info("Recording game results to postgres")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(gs, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("trivia v%s running on %s (games from %s)", releaseVersion, srv.Addr, cfg.GameRoot)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gs.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
