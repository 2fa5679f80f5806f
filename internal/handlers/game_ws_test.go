// internal/handlers/game_ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialRole(t *testing.T, srv *httptest.Server, lobbyID, role string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/" + lobbyID + "/" + role
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func sendJSON(t *testing.T, c *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	sendRaw(t, c, string(data))
}

func sendRaw(t *testing.T, c *websocket.Conn, s string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(s)))
}

// readUntil returns the first message matching pred.
func readUntil(t *testing.T, c *websocket.Conn, pred func(m map[string]interface{}) bool) map[string]interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		if pred(m) {
			return m
		}
	}
}

// readUntilClosed discards messages until the server closes the socket and returns its close code.
func readUntilClosed(t *testing.T, c *websocket.Conn) websocket.StatusCode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		if _, _, err := c.Read(ctx); err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

func isState(pred func(m map[string]interface{}) bool) func(m map[string]interface{}) bool {
	return func(m map[string]interface{}) bool {
		return m["message"] == "state" && pred(m)
	}
}

func hasPlayer(name string) func(m map[string]interface{}) bool {
	return isState(func(m map[string]interface{}) bool {
		players, _ := m["players"].(map[string]interface{})
		_, ok := players[name]
		return ok
	})
}

func connectPlayer(t *testing.T, srv *httptest.Server, lobbyID, name string) *websocket.Conn {
	t.Helper()
	c := dialRole(t, srv, lobbyID, "buzzer")
	sendJSON(t, c, map[string]interface{}{"request": "connect", "name": name})
	readUntil(t, c, hasPlayer(name))
	return c
}

func createLobby(t *testing.T, gs *GameServer) *game.Game {
	t.Helper()
	g, err := gs.CreateGame(context.Background(), "1", game.ModeHosted)
	require.NoError(t, err)
	return g
}

// TestHostedClueOverWebsockets plays one clue with a board, a host and a player.
func TestHostedClueOverWebsockets(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	board := dialRole(t, srv, g.LobbyID, "board")
	cats := readUntil(t, board, func(m map[string]interface{}) bool { return m["message"] == "categories" })
	assert.Equal(t, []interface{}{"RIVERS", "POTENT POTABLES"}, cats["categories"])

	host := dialRole(t, srv, g.LobbyID, "host")
	readUntil(t, host, isState(func(map[string]interface{}) bool { return true }))

	bob := connectPlayer(t, srv, g.LobbyID, "Bob")

	sendJSON(t, host, map[string]interface{}{"request": "reveal", "row": 0, "col": 0})
	clue := readUntil(t, bob, isState(func(m map[string]interface{}) bool { return m["state_type"] == "Clue" }))
	assert.Equal(t, "Longest river in Africa", clue["clue"])
	assert.Equal(t, "", clue["response"], "players do not see the answer during the clue")

	hostClue := readUntil(t, host, isState(func(m map[string]interface{}) bool { return m["state_type"] == "Clue" }))
	assert.Equal(t, "What is the Nile?", hostClue["response"])

	sendJSON(t, host, map[string]interface{}{"request": "open"})
	readUntil(t, bob, isState(func(m map[string]interface{}) bool { return m["buzzers_open"] == true }))

	sendJSON(t, bob, map[string]interface{}{"request": "buzz"})
	readUntil(t, host, isState(func(m map[string]interface{}) bool { return m["buzzed_player"] == "Bob" }))

	sendJSON(t, host, map[string]interface{}{"request": "correct", "correct": true})
	done := readUntil(t, bob, isState(func(m map[string]interface{}) bool { return m["state_type"] == "Response" }))
	assert.Equal(t, "What is the Nile?", done["response"])
	assert.Equal(t, "Bob", done["active_player"])
	players := done["players"].(map[string]interface{})
	assert.Equal(t, float64(200), players["Bob"].(map[string]interface{})["balance"])

	readUntil(t, board, isState(func(m map[string]interface{}) bool { return m["state_type"] == "Response" }))
}

func TestSecondHostIsRejected(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	first := dialRole(t, srv, g.LobbyID, "host")
	readUntil(t, first, isState(func(map[string]interface{}) bool { return true }))

	second := dialRole(t, srv, g.LobbyID, "host")
	assert.Equal(t, websocket.StatusCode(RoleTakenError), readUntilClosed(t, second))

	// The first host keeps working.
	sendJSON(t, first, map[string]interface{}{"request": "reveal", "row": 0, "col": 1})
	readUntil(t, first, isState(func(m map[string]interface{}) bool { return m["category"] == "POTENT POTABLES" }))
}

func TestDuplicatePlayerNameIsRejected(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	connectPlayer(t, srv, g.LobbyID, "Bob")
	dup := dialRole(t, srv, g.LobbyID, "buzzer")
	sendJSON(t, dup, map[string]interface{}{"request": "connect", "name": "Bob"})
	assert.Equal(t, websocket.StatusCode(NameTakenError), readUntilClosed(t, dup))
}

func TestUnknownLobbyIsClosed(t *testing.T) {
	_, srv := newTestServer(t)
	c := dialRole(t, srv, "nobody-home", "board")
	assert.Equal(t, websocket.StatusCode(InvalidLobbyIDError), readUntilClosed(t, c))
}

func TestMalformedEnvelopeClosesConnection(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	bob := connectPlayer(t, srv, g.LobbyID, "Bob")
	sendRaw(t, bob, "definitely not json")
	assert.Equal(t, websocket.StatusCode(InvalidRequestError), readUntilClosed(t, bob))

	require.Eventually(t, func() bool {
		p, ok := g.Snapshot().Players["Bob"]
		return ok && !p.Connected
	}, 2*time.Second, 10*time.Millisecond, "the player entry stays, disconnected")
}

func TestPayloadErrors(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	host := dialRole(t, srv, g.LobbyID, "host")
	readUntil(t, host, isState(func(map[string]interface{}) bool { return true }))

	// A bad reveal payload is dropped and the socket stays usable.
	sendRaw(t, host, `{"request":"reveal","row":"first","col":0}`)
	sendRaw(t, host, `{"request":"no_such_request"}`)
	sendJSON(t, host, map[string]interface{}{"request": "reveal", "row": 0, "col": 0})
	readUntil(t, host, isState(func(m map[string]interface{}) bool { return m["state_type"] == "Clue" }))

	// A bad correct payload is fatal.
	sendRaw(t, host, `{"request":"correct","correct":"yes"}`)
	assert.Equal(t, websocket.StatusCode(InvalidRequestError), readUntilClosed(t, host))
}

func TestPlayerMustConnectFirst(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	c := dialRole(t, srv, g.LobbyID, "buzzer")
	sendJSON(t, c, map[string]interface{}{"request": "buzz"})
	assert.Equal(t, websocket.StatusCode(InvalidRequestError), readUntilClosed(t, c))
}

func TestEndGameClosesSockets(t *testing.T) {
	gs, srv := newTestServer(t)
	g := createLobby(t, gs)

	board := dialRole(t, srv, g.LobbyID, "board")
	readUntil(t, board, isState(func(map[string]interface{}) bool { return true }))
	bob := connectPlayer(t, srv, g.LobbyID, "Bob")

	_, err := gs.EndGame(context.Background(), g.LobbyID)
	require.NoError(t, err)

	assert.Equal(t, websocket.StatusNormalClosure, readUntilClosed(t, bob))
	assert.Equal(t, websocket.StatusNormalClosure, readUntilClosed(t, board))
}
