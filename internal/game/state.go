// internal/game/state.go
package game

import (
	"encoding/json"
	"sort"

	"github.com/jason-s-yu/trivia/internal/content"
)

// Phase is the state_type broadcast to every client.
type Phase string

const (
	PhaseBoard       Phase = "Board"
	PhaseClue        Phase = "Clue"
	PhaseDailyDouble Phase = "DailyDouble"
	PhaseFinalWager  Phase = "FinalWager"
	PhaseFinalClue   Phase = "FinalClue"
	PhaseResponse    Phase = "Response"
)

// Player is a named contestant. The entry outlives its connection so balance survives a reconnect.
type Player struct {
	Name      string `json:"name"`
	Balance   int    `json:"balance"`
	Connected bool   `json:"connected"`
	DidAuth   bool   `json:"-"`

	conn *Connection
}

// NameSet is a set of player names, encoded as a sorted JSON array.
type NameSet map[string]struct{}

func (s NameSet) Add(name string)      { s[name] = struct{}{} }
func (s NameSet) Has(name string) bool { _, ok := s[name]; return ok }
func (s NameSet) Remove(name string)   { delete(s, name) }

// Clear empties the set in place.
func (s NameSet) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s NameSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// State is everything a client needs to render the game.
type State struct {
	StateType        Phase              `json:"state_type"`
	BuzzersOpen      bool               `json:"buzzers_open"`
	BuzzedPlayer     string             `json:"buzzed_player"`
	BuzzedResponded  bool               `json:"buzzed_responded"`
	ActivePlayer     string             `json:"active_player"`
	RespondedPlayers NameSet            `json:"responded_players"`
	Cost             int                `json:"cost"`
	Category         string             `json:"category"`
	Clue             string             `json:"clue"`
	Response         string             `json:"response"`
	Media            string             `json:"media,omitempty"`
	Players          map[string]*Player `json:"players"`
	CluesShown       uint64             `json:"clues_shown"`
	Wagers           map[string]*int    `json:"wagers"`
	PlayerResponses  map[string]*string `json:"player_responses"`
	BareRound        content.BareRound  `json:"bare_round"`
	RoundIdx         int                `json:"round_idx"`
	TimerExpires     *int64             `json:"timer_expires,omitempty"`

	// timerEpoch identifies the only autoplay timer allowed to fire.
	timerEpoch uint64
}

// MarshalJSON encodes an unset buzzed or active player as null.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	return json.Marshal(struct {
		plain
		BuzzedPlayer *string `json:"buzzed_player"`
		ActivePlayer *string `json:"active_player"`
	}{plain(s), optionalName(s.BuzzedPlayer), optionalName(s.ActivePlayer)})
}

func optionalName(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

// NewState returns the pre-game state for the first round.
func NewState(first *content.Round) *State {
	return &State{
		StateType:        PhaseBoard,
		Category:         "Welcome to Jeopardy!",
		Clue:             "Please wait for the game to start.",
		Response:         "I'm sure that'll be soon",
		RespondedPlayers: NameSet{},
		Players:          make(map[string]*Player),
		Wagers:           make(map[string]*int),
		PlayerResponses:  make(map[string]*string),
		BareRound:        first.Bare(),
	}
}

// PlayerNames returns all registered names in lexical order.
func (s *State) PlayerNames() []string {
	names := make([]string, 0, len(s.Players))
	for name := range s.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// everyoneResponded reports whether every registered player has had a try at the clue.
func (s *State) everyoneResponded() bool {
	for name := range s.Players {
		if !s.RespondedPlayers.Has(name) {
			return false
		}
	}
	return true
}

// lockInBuzz closes the buzzers with name as the one answering.
func (s *State) lockInBuzz(name string) {
	s.BuzzersOpen = false
	s.BuzzedPlayer = name
	s.BuzzedResponded = false
	s.RespondedPlayers.Add(name)
}

func (s *State) clearBuzz() {
	s.BuzzersOpen = false
	s.BuzzedPlayer = ""
	s.BuzzedResponded = false
}

// clone deep-copies the state so it can be read after the lock is released.
func (s *State) clone() State {
	out := *s
	out.RespondedPlayers = make(NameSet, len(s.RespondedPlayers))
	for k := range s.RespondedPlayers {
		out.RespondedPlayers.Add(k)
	}
	out.Players = make(map[string]*Player, len(s.Players))
	for k, p := range s.Players {
		cp := *p
		cp.conn = nil
		out.Players[k] = &cp
	}
	out.Wagers = make(map[string]*int, len(s.Wagers))
	for k, w := range s.Wagers {
		if w != nil {
			v := *w
			w = &v
		}
		out.Wagers[k] = w
	}
	out.PlayerResponses = make(map[string]*string, len(s.PlayerResponses))
	for k, r := range s.PlayerResponses {
		if r != nil {
			v := *r
			r = &v
		}
		out.PlayerResponses[k] = r
	}
	if s.TimerExpires != nil {
		v := *s.TimerExpires
		out.TimerExpires = &v
	}
	return out
}
