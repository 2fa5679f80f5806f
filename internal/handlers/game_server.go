// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/trivia/internal/content"
	"github.com/jason-s-yu/trivia/internal/database"
	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/sirupsen/logrus"
)

var ErrLobbyNotFound = errors.New("lobby not found")

// ActionPublisher receives every accepted game action. Enqueue must not block.
type ActionPublisher interface {
	Enqueue(rec game.ActionRecord) bool
}

// ResultRecorder persists the final balances of an ended game.
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, res database.GameResult) error
}

// GameServer owns the lobby lifecycle: creating games from content, looking them up, and ending them.
type GameServer struct {
	Store   *game.Store
	IDs     *game.LobbyIDs
	Content content.Source
	Log     logrus.FieldLogger

	// Actions and Results are optional sinks; nil disables them.
	Actions ActionPublisher
	Results ResultRecorder

	AutoplayDelay time.Duration
	// PublicURL is the externally reachable base URL used for join links. Empty means derive it from the request.
	PublicURL string
}

func NewGameServer(src content.Source, logger logrus.FieldLogger) *GameServer {
	return &GameServer{
		Store:         game.NewStore(),
		IDs:           game.NewLobbyIDs(),
		Content:       src,
		Log:           logger,
		AutoplayDelay: game.DefaultAutoplayDelay,
	}
}

// CreateGame loads contentID and starts a new lobby for it.
func (gs *GameServer) CreateGame(ctx context.Context, contentID string, mode game.Mode) (*game.Game, error) {
	def, err := gs.Content.Load(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("load content %q: %w", contentID, err)
	}

	lobbyID := gs.IDs.Take()
	g := game.NewGame(lobbyID, def, mode)
	g.ContentID = contentID
	g.AutoplayDelay = gs.AutoplayDelay
	g.Log = gs.Log.WithField("lobby", lobbyID)
	if gs.Actions != nil {
		g.OnAction = func(rec game.ActionRecord) {
			gs.Actions.Enqueue(rec)
		}
	}
	gs.Store.Add(g)

	gs.Log.WithFields(logrus.Fields{"lobby": lobbyID, "content": contentID, "mode": mode}).Info("Game created")
	return g, nil
}

// Game looks up a live lobby.
func (gs *GameServer) Game(lobbyID string) (*game.Game, bool) {
	return gs.Store.Get(lobbyID)
}

// EndGame closes every socket of the lobby, evicts it, and records the final balances.
// A failure to record is logged; the lobby is gone either way.
func (gs *GameServer) EndGame(ctx context.Context, lobbyID string) (map[string]int, error) {
	g := gs.Store.Delete(lobbyID)
	if g == nil {
		return nil, ErrLobbyNotFound
	}
	balances := g.End()
	gs.IDs.Release(lobbyID)
	gs.Log.WithField("lobby", lobbyID).Infof("Game ended with %d players", len(balances))

	if gs.Results != nil {
		res := database.GameResult{
			GameID:    g.ID,
			LobbyID:   lobbyID,
			ContentID: g.ContentID,
			Mode:      string(g.Mode),
			Created:   g.Created,
			Ended:     time.Now(),
			Balances:  balances,
		}
		if err := gs.Results.RecordGameResult(ctx, res); err != nil {
			gs.Log.WithField("lobby", lobbyID).Warnf("Failed to record game results: %v", err)
		}
	}
	return balances, nil
}

// Shutdown ends every live lobby.
func (gs *GameServer) Shutdown(ctx context.Context) {
	for _, g := range gs.Store.List() {
		if _, err := gs.EndGame(ctx, g.LobbyID); err != nil && !errors.Is(err, ErrLobbyNotFound) {
			gs.Log.Warnf("Failed to end lobby %s: %v", g.LobbyID, err)
		}
	}
}
