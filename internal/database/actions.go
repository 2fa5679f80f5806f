// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/trivia/internal/game"
)

// ActionStore persists the action log drained by the historian.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// InsertActions writes a batch of action records in one transaction.
// Records already stored (same game and index) are skipped, so a redelivered batch is harmless.
func (s *ActionStore) InsertActions(ctx context.Context, recs []game.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %d: %w", rec.ActionIndex, err)
			}
			batch.Queue(`
				INSERT INTO game_actions (game_id, lobby_id, action_index, actor, action_type, payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (game_id, action_index) DO NOTHING
			`, rec.GameID, rec.LobbyID, rec.ActionIndex, rec.Actor, rec.ActionType, payload, time.UnixMilli(rec.Timestamp))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert %d actions: %w", len(recs), err)
	}
	return nil
}

// CountActions returns how many actions are stored for a lobby.
func (s *ActionStore) CountActions(ctx context.Context, lobbyID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM game_actions WHERE lobby_id = $1`, lobbyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return n, nil
}
