// internal/game/game_store.go
package game

import (
	"sort"
	"sync"
)

// Store holds the live games, keyed by lobby id.
type Store struct {
	mu    sync.Mutex
	games map[string]*Game
}

func NewStore() *Store {
	return &Store{
		games: make(map[string]*Game),
	}
}

// Add registers g under its lobby id, replacing any previous game there.
func (s *Store) Add(g *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.LobbyID] = g
}

func (s *Store) Get(lobbyID string) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[lobbyID]
	return g, exists
}

// Delete removes and returns the game for lobbyID, or nil if none is found.
func (s *Store) Delete(lobbyID string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.games[lobbyID]
	delete(s.games, lobbyID)
	return g
}

// List returns every live game, oldest first.
func (s *Store) List() []*Game {
	s.mu.Lock()
	out := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].LobbyID < out[j].LobbyID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}
