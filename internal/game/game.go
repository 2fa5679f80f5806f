// internal/game/game.go
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trivia/internal/content"
	"github.com/jason-s-yu/trivia/internal/models"
	"github.com/sirupsen/logrus"
)

// Mode selects whether a human host drives the buzzers or timers do.
type Mode string

const (
	ModeHosted   Mode = "hosted"
	ModeHostless Mode = "hostless"
)

// ParseMode maps a query value to a Mode, defaulting to hosted.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeHosted:
		return ModeHosted, nil
	case ModeHostless:
		return ModeHostless, nil
	}
	return "", ErrUnknownMode
}

// DefaultAutoplayDelay is how long hostless timers wait before opening or closing buzzers.
const DefaultAutoplayDelay = 10 * time.Second

var (
	ErrAlreadyConnected = errors.New("role already has a live connection")
	ErrAlreadyOnline    = errors.New("player name already online")
	ErrInvalidName      = errors.New("player name must not be empty")
	ErrGameEnded        = errors.New("game has ended")
	ErrUnknownMode      = errors.New("unknown game mode")
)

// ActionRecord describes one accepted state-machine action, for the action log.
type ActionRecord struct {
	GameID      uuid.UUID              `json:"game_id"`
	LobbyID     string                 `json:"lobby_id"`
	ActionIndex int                    `json:"action_index"`
	Actor       string                 `json:"actor,omitempty"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// Summary is a read-only snapshot for lobby listings.
type Summary struct {
	LobbyID    string   `json:"lobby_id"`
	ContentID  string   `json:"content_id,omitempty"`
	Players    []string `json:"players"`
	Categories []string `json:"categories"`
	Mode       Mode     `json:"mode"`
	Created    int64    `json:"created"`
}

// Game is one lobby's trivia game. Every exported method takes the lock for its whole
// mutate-and-broadcast cycle, so callers never observe a half-applied transition.
type Game struct {
	ID        uuid.UUID
	LobbyID   string
	ContentID string
	Mode      Mode
	Created   time.Time
	Rounds    []content.Round

	// AutoplayDelay is the hostless auto-open/auto-close delay. Zero disables the timers.
	AutoplayDelay time.Duration

	// OnAction receives every accepted action. It runs with the game lock held and must not block.
	OnAction func(ActionRecord)

	Log logrus.FieldLogger

	mu          sync.RWMutex
	state       *State
	host        *Connection
	board       *Connection
	ended       bool
	timer       *time.Timer
	actionIndex int
	rng         *rand.Rand
}

// NewGame builds a game at the first round of def. def must have been validated.
func NewGame(lobbyID string, def *content.Definition, mode Mode) *Game {
	id, _ := uuid.NewRandom()
	return &Game{
		ID:            id,
		LobbyID:       lobbyID,
		Mode:          mode,
		Created:       time.Now(),
		Rounds:        def.Rounds,
		AutoplayDelay: DefaultAutoplayDelay,
		Log:           logrus.WithField("lobby", lobbyID),
		state:         NewState(&def.Rounds[0]),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// round returns the current round. Assumes lock is held.
func (g *Game) round() *content.Round {
	return &g.Rounds[g.state.RoundIdx]
}

// apply runs one transition under the writer lock and broadcasts once if it was accepted.
func (g *Game) apply(actor, action string, payload map[string]interface{}, fn func() bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return false
	}
	if !fn() {
		g.Log.WithFields(logrus.Fields{"actor": actor, "action": action}).Debug("ignored request")
		return false
	}
	g.logAction(actor, action, payload)
	g.broadcast()
	return true
}

// ConnectHost claims the host slot.
func (g *Game) ConnectHost(conn *Connection) error {
	return g.connectRole(&g.host, conn, "host")
}

// ConnectBoard claims the board slot.
func (g *Game) ConnectBoard(conn *Connection) error {
	return g.connectRole(&g.board, conn, "board")
}

func (g *Game) connectRole(slot **Connection, conn *Connection, role string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return ErrGameEnded
	}
	if *slot != nil {
		g.Log.Infof("Rejected %s connection %s: one is already connected.", role, conn.ID)
		return ErrAlreadyConnected
	}
	*slot = conn
	g.Log.Infof("Connected %s %s.", role, conn.ID)
	g.sendCategories(conn)
	g.broadcast()
	return nil
}

// DisconnectHost frees the host slot if conn still holds it.
func (g *Game) DisconnectHost(conn *Connection) {
	g.disconnectRole(&g.host, conn, "host")
}

// DisconnectBoard frees the board slot if conn still holds it.
func (g *Game) DisconnectBoard(conn *Connection) {
	g.disconnectRole(&g.board, conn, "board")
}

func (g *Game) disconnectRole(slot **Connection, conn *Connection, role string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conn.Close()
	if *slot != conn {
		return
	}
	*slot = nil
	g.Log.Infof("Removed %s socket %s.", role, conn.ID)
	if !g.ended {
		g.broadcast()
	}
}

// RegisterPlayer attaches conn to name, creating the player on first sight.
func (g *Game) RegisterPlayer(name string, conn *Connection) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return ErrGameEnded
	}
	if name == "" {
		return ErrInvalidName
	}

	s := g.state
	if p, ok := s.Players[name]; ok {
		if p.conn != nil {
			g.Log.Infof("Rejected player %q: name already online.", name)
			return ErrAlreadyOnline
		}
		p.conn = conn
		p.Connected = true
		g.Log.Infof("Player %q reconnected.", name)
	} else {
		s.Players[name] = &Player{Name: name, conn: conn, Connected: true}
		s.Wagers[name] = nil
		s.PlayerResponses[name] = nil
		g.Log.Infof("Player %q joined.", name)
	}

	g.logAction(name, "player_connect", nil)
	g.sendCategories(conn)
	g.broadcast()
	return nil
}

// DisconnectPlayer detaches conn from name. The player entry and balance are kept.
func (g *Game) DisconnectPlayer(name string, conn *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conn.Close()
	p, ok := g.state.Players[name]
	if !ok || p.conn != conn {
		return
	}
	p.conn = nil
	p.Connected = false
	g.Log.Infof("Player %q disconnected.", name)
	if !g.ended {
		g.broadcast()
	}
}

// End closes every socket and stops autoplay. It returns the final balances.
func (g *Game) End() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	balances := make(map[string]int, len(g.state.Players))
	for name, p := range g.state.Players {
		balances[name] = p.Balance
	}
	if g.ended {
		return balances
	}
	g.ended = true
	g.supersedeTimer()

	if g.host != nil {
		g.host.Close()
		g.host = nil
	}
	if g.board != nil {
		g.board.Close()
		g.board = nil
	}
	for _, p := range g.state.Players {
		if p.conn != nil {
			p.conn.Close()
			p.conn = nil
			p.Connected = false
		}
	}
	g.logAction("", "game_end", map[string]interface{}{"balances": balances})
	g.Log.Info("Game ended.")
	return balances
}

// Ended reports whether End has been called.
func (g *Game) Ended() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ended
}

// Describe returns a read-only snapshot for the lobby endpoints.
func (g *Game) Describe() Summary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Summary{
		LobbyID:    g.LobbyID,
		ContentID:  g.ContentID,
		Players:    g.state.PlayerNames(),
		Categories: g.round().CategoryNames(),
		Mode:       g.Mode,
		Created:    g.Created.UnixMilli(),
	}
}

// Snapshot returns a copy of the unfiltered state, as the host sees it.
func (g *Game) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cp := g.state.clone()
	return Project(&cp, RoleHost, "", g.Mode)
}

// PlayerView returns the state as the named player currently sees it.
func (g *Game) PlayerView(name string) State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cp := g.state.clone()
	return Project(&cp, RolePlayer, name, g.Mode)
}

// logAction hands an accepted action to OnAction. Assumes lock is held.
func (g *Game) logAction(actor, action string, payload map[string]interface{}) {
	g.actionIndex++
	g.Log.WithFields(logrus.Fields{"actor": actor, "action": action}).Debug("action applied")
	if g.OnAction == nil {
		return
	}
	g.OnAction(ActionRecord{
		GameID:      g.ID,
		LobbyID:     g.LobbyID,
		ActionIndex: g.actionIndex,
		Actor:       actor,
		ActionType:  action,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	})
}

// sendInputResponse tells a player whether their wager/response was taken. Assumes lock is held.
func (g *Game) sendInputResponse(name string, valid bool, reason string) {
	p, ok := g.state.Players[name]
	if !ok || p.conn == nil {
		return
	}
	g.send(p.conn, models.NewInputResponse(valid, reason))
}
