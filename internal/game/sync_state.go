// internal/game/sync_state.go
package game

import (
	"encoding/json"

	"github.com/jason-s-yu/trivia/internal/models"
)

// Role is the kind of client a state projection is built for.
type Role string

const (
	RoleHost   Role = "host"
	RoleBoard  Role = "board"
	RolePlayer Role = "player"
)

// stateMessage is the wire form: {"message":"state", ...State}.
type stateMessage struct {
	Message string `json:"message"`
	State
}

// MarshalJSON prepends the message tag to the flattened state. Without it the embedded
// State.MarshalJSON would be promoted and drop the tag.
func (m stateMessage) MarshalJSON() ([]byte, error) {
	body, err := m.State.MarshalJSON()
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(m.Message)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(tag)+12)
	out = append(out, `{"message":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

// Project returns the state as viewer, in role, is allowed to see it.
// Host and board see everything. Players only see the correct response once it has been shown,
// or in hostless mode when they are the buzzed player grading their own declared answer.
func Project(s *State, role Role, viewer string, mode Mode) State {
	view := *s
	if role != RolePlayer || answerVisible(s, viewer, mode) {
		return view
	}
	view.Response = ""
	return view
}

func answerVisible(s *State, viewer string, mode Mode) bool {
	switch s.StateType {
	case PhaseResponse, PhaseBoard:
		return true
	}
	return mode == ModeHostless &&
		viewer != "" &&
		s.BuzzedPlayer == viewer &&
		s.BuzzedResponded &&
		s.RespondedPlayers.Has(viewer)
}

// broadcast sends every live connection its view of the state. Assumes lock is held.
func (g *Game) broadcast() {
	full, err := encode(stateMessage{Message: models.MessageState, State: *g.state})
	if err != nil {
		g.Log.Errorf("Failed to serialize state, skipping broadcast: %v", err)
		return
	}
	if g.host != nil {
		g.host.Write(full)
	}
	if g.board != nil {
		g.board.Write(full)
	}

	for name, p := range g.state.Players {
		if p.conn == nil {
			continue
		}
		view := Project(g.state, RolePlayer, name, g.Mode)
		data, err := encode(stateMessage{Message: models.MessageState, State: view})
		if err != nil {
			g.Log.Errorf("Failed to serialize state for player %q: %v", name, err)
			continue
		}
		p.conn.Write(data)
	}
}

// broadcastCategories sends the current round's categories to everyone. Assumes lock is held.
func (g *Game) broadcastCategories() {
	msg := models.CategoriesMessage{Message: models.MessageCategories, Categories: g.round().CategoryNames()}
	data, err := encode(msg)
	if err != nil {
		g.Log.Errorf("Failed to serialize categories: %v", err)
		return
	}
	for _, c := range g.liveConnections() {
		c.Write(data)
	}
}

// sendCategories sends the current round's categories to one connection. Assumes lock is held.
func (g *Game) sendCategories(conn *Connection) {
	g.send(conn, models.CategoriesMessage{Message: models.MessageCategories, Categories: g.round().CategoryNames()})
}

// liveConnections lists host, board and every connected player. Assumes lock is held.
func (g *Game) liveConnections() []*Connection {
	conns := make([]*Connection, 0, len(g.state.Players)+2)
	if g.host != nil {
		conns = append(conns, g.host)
	}
	if g.board != nil {
		conns = append(conns, g.board)
	}
	for _, p := range g.state.Players {
		if p.conn != nil {
			conns = append(conns, p.conn)
		}
	}
	return conns
}
