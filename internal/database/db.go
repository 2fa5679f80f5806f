// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool for databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         UUID PRIMARY KEY,
	lobby_id   TEXT NOT NULL,
	content_id TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS game_results (
	game_id     UUID NOT NULL REFERENCES games (id) ON DELETE CASCADE,
	player_name TEXT NOT NULL,
	balance     INTEGER NOT NULL,
	did_win     BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (game_id, player_name)
);
CREATE TABLE IF NOT EXISTS game_actions (
	game_id      UUID NOT NULL,
	lobby_id     TEXT NOT NULL,
	action_index INTEGER NOT NULL,
	actor        TEXT NOT NULL DEFAULT '',
	action_type  TEXT NOT NULL,
	payload      JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);
CREATE INDEX IF NOT EXISTS game_actions_lobby_idx ON game_actions (lobby_id);
`

// EnsureSchema creates the results and action log tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
