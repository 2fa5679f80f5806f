// internal/database/game.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameResult is the final outcome of one lobby.
type GameResult struct {
	GameID    uuid.UUID
	LobbyID   string
	ContentID string
	Mode      string
	Created   time.Time
	Ended     time.Time
	Balances  map[string]int
}

// ResultStore persists finished games.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// RecordGameResult writes the game row and one result row per player in a single transaction.
// Recording the same game twice overwrites the earlier balances.
func (s *ResultStore) RecordGameResult(ctx context.Context, res GameResult) error {
	won := Winners(res.Balances)
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, lobby_id, content_id, mode, created_at, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET ended_at = $6
		`
		if _, e := tx.Exec(ctx, upsertGame, res.GameID, res.LobbyID, res.ContentID, res.Mode, res.Created, res.Ended); e != nil {
			return e
		}

		for name, balance := range res.Balances {
			q := `
				INSERT INTO game_results (game_id, player_name, balance, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_name)
				DO UPDATE SET balance=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, q, res.GameID, name, balance, won[name]); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// PlayerResult is one row of a recorded game.
type PlayerResult struct {
	PlayerName string `json:"player_name"`
	Balance    int    `json:"balance"`
	DidWin     bool   `json:"did_win"`
}

// GetGameResults returns the recorded players of a game, highest balance first.
func (s *ResultStore) GetGameResults(ctx context.Context, gameID uuid.UUID) ([]PlayerResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_name, balance, did_win
		FROM game_results
		WHERE game_id = $1
		ORDER BY balance DESC, player_name
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game results: %w", err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByPos[PlayerResult])
	if err != nil {
		return nil, fmt.Errorf("scan game results: %w", err)
	}
	return results, nil
}

// Winners marks every player holding the top balance. Ties all win; nobody wins an empty game.
func Winners(balances map[string]int) map[string]bool {
	won := make(map[string]bool, len(balances))
	first := true
	best := 0
	for _, b := range balances {
		if first || b > best {
			best = b
			first = false
		}
	}
	for name, b := range balances {
		won[name] = b == best
	}
	return won
}
