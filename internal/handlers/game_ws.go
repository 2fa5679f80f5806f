// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/jason-s-yu/trivia/internal/middleware"
	"github.com/jason-s-yu/trivia/internal/models"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
	pingTimeout  = 15 * time.Second
)

// errBadRequest marks an inbound message that ends the connection.
var errBadRequest = errors.New("malformed request")

// route handles one request tag. Payload decode failures are skipped unless fatal is set.
type route struct {
	fatal  bool
	handle func(data []byte) error
}

// do adapts a payload-free action.
func do(fn func() bool) route {
	return route{handle: func([]byte) error {
		fn()
		return nil
	}}
}

// decodeThen decodes the payload into T before calling fn.
func decodeThen[T any](fatal bool, fn func(req T)) route {
	return route{fatal: fatal, handle: func(data []byte) error {
		var req T
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		fn(req)
		return nil
	}}
}

func boardRoutes(g *game.Game) map[string]route {
	return map[string]route{
		models.RequestNextRound: do(g.NextRound),
		models.RequestResponse:  do(g.ShowResponse),
		models.RequestBoard:     do(g.ShowBoard),
		models.RequestRemove: decodeThen(false, func(req models.PlayerRequest) {
			g.RemovePlayer(req.Player)
		}),
		models.RequestSetPlayerBalance: decodeThen(false, func(req models.PlayerBalanceRequest) {
			g.SetPlayerBalance(req.Player, req.Amount)
		}),
		models.RequestReveal: decodeThen(false, func(req models.RevealRequest) {
			g.Reveal(req.Row, req.Col)
		}),
		models.RequestRandomizeActivePlayer: do(g.RandomizeActivePlayer),
		models.RequestContinue:              do(g.ForceContinue),
	}
}

func hostRoutes(g *game.Game) map[string]route {
	return map[string]route{
		models.RequestOpen:  do(func() bool { return g.SetBuzzersOpen(true) }),
		models.RequestClose: do(func() bool { return g.SetBuzzersOpen(false) }),
		models.RequestCorrect: decodeThen(true, func(req models.CorrectRequest) {
			g.Correct(req.Correct)
		}),
		models.RequestPlayer: decodeThen(true, func(req models.PlayerRequest) {
			g.SetActivePlayer(req.Player)
		}),
		models.RequestReveal: decodeThen(false, func(req models.RevealRequest) {
			g.Reveal(req.Row, req.Col)
		}),
		models.RequestContinue: do(g.ForceContinue),
	}
}

func playerRoutes(g *game.Game, name string) map[string]route {
	return map[string]route{
		models.RequestBuzz: do(func() bool { return g.Buzz(name) }),
		models.RequestResponse: decodeThen(true, func(req models.ResponseRequest) {
			g.Respond(name, req.Response)
		}),
		models.RequestWager: decodeThen(true, func(req models.WagerRequest) {
			g.Wager(name, req.Amount)
		}),
		models.RequestReveal: decodeThen(false, func(req models.RevealRequest) {
			g.PlayerReveal(name, req.Row, req.Col)
		}),
		models.RequestCorrect: decodeThen(true, func(req models.CorrectRequest) {
			g.PlayerCorrect(name, req.Correct)
		}),
		models.RequestResponded: do(func() bool { return g.DeclareResponded(name) }),
	}
}

// BoardWSHandler upgrades to the board role of a lobby.
func BoardWSHandler(logger logrus.FieldLogger, gs *GameServer) httprouter.Handle {
	return roleHandler(logger, gs, game.RoleBoard, func(g *game.Game, conn *game.Connection) (func(), map[string]route, error) {
		if err := g.ConnectBoard(conn); err != nil {
			return nil, nil, err
		}
		return func() { g.DisconnectBoard(conn) }, boardRoutes(g), nil
	})
}

// HostWSHandler upgrades to the host role of a lobby.
func HostWSHandler(logger logrus.FieldLogger, gs *GameServer) httprouter.Handle {
	return roleHandler(logger, gs, game.RoleHost, func(g *game.Game, conn *game.Connection) (func(), map[string]route, error) {
		if err := g.ConnectHost(conn); err != nil {
			return nil, nil, err
		}
		return func() { g.DisconnectHost(conn) }, hostRoutes(g), nil
	})
}

// roleAttach claims a role on g for conn. It returns the detach func and the request table.
type roleAttach func(g *game.Game, conn *game.Connection) (func(), map[string]route, error)

func roleHandler(logger logrus.FieldLogger, gs *GameServer, role game.Role, attach roleAttach) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		lobbyID := ps.ByName("lobby")
		log := logger.WithFields(logrus.Fields{"lobby": lobbyID, "role": role})

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			log.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		g, ok := gs.Game(lobbyID)
		if !ok {
			c.Close(websocket.StatusCode(InvalidLobbyIDError), "lobby not found")
			return
		}

		conn := game.NewConnection()
		detach, routes, err := attach(g, conn)
		if err != nil {
			log.Infof("Rejected %s connection: %v", role, err)
			c.Close(closeCodeFor(err), err.Error())
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path, string(role))

		err = serveConnection(r.Context(), c, conn, routes, detach, log)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, string(role), err)
	}
}

// PlayerWSHandler upgrades to the player role. The first message must be a connect request naming the player.
func PlayerWSHandler(logger logrus.FieldLogger, gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		lobbyID := ps.ByName("lobby")
		log := logger.WithFields(logrus.Fields{"lobby": lobbyID, "role": game.RolePlayer})

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			log.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		g, ok := gs.Game(lobbyID)
		if !ok {
			c.Close(websocket.StatusCode(InvalidLobbyIDError), "lobby not found")
			return
		}

		ctx := r.Context()
		req, err := readConnect(ctx, c)
		if err != nil {
			log.Warnf("Bad connect message from %s: %v", r.RemoteAddr, err)
			c.Close(websocket.StatusCode(InvalidRequestError), "expected connect request")
			return
		}

		conn := game.NewConnection()
		if err := g.RegisterPlayer(req.Name, conn); err != nil {
			log.Infof("Rejected player %q: %v", req.Name, err)
			c.Close(closeCodeFor(err), err.Error())
			return
		}
		log = log.WithField("player", req.Name)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path, string(game.RolePlayer))

		detach := func() { g.DisconnectPlayer(req.Name, conn) }
		err = serveConnection(ctx, c, conn, playerRoutes(g, req.Name), detach, log)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, string(game.RolePlayer), err)
	}
}

// readConnect reads the player's opening message.
func readConnect(ctx context.Context, c *websocket.Conn) (*models.ConnectRequest, error) {
	msgType, data, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if msgType != websocket.MessageText {
		return nil, fmt.Errorf("%w: non-text connect message", errBadRequest)
	}
	var req models.ConnectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.Request != models.RequestConnect {
		return nil, fmt.Errorf("%w: first request was %q", errBadRequest, req.Request)
	}
	return &req, nil
}

// serveConnection runs the write pump and the read loop until either side gives up, then detaches
// the connection from the game and waits for queued messages to flush.
func serveConnection(ctx context.Context, c *websocket.Conn, conn *game.Connection, routes map[string]route, detach func(), log logrus.FieldLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(ctx, c, conn, log)
	}()

	err := readRequests(ctx, c, routes, log)
	if errors.Is(err, errBadRequest) {
		c.Close(websocket.StatusCode(InvalidRequestError), "malformed request")
	}

	detach()
	select {
	case <-done:
	case <-time.After(writeTimeout):
		cancel()
		<-done
	}
	return err
}

// readRequests dispatches inbound requests until the socket fails or a malformed message arrives.
func readRequests(ctx context.Context, c *websocket.Conn, routes map[string]route, log logrus.FieldLogger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}

		var base models.BaseRequest
		if err := json.Unmarshal(data, &base); err != nil {
			log.Warnf("Invalid JSON envelope: %v. Data: %s", err, string(data))
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}

		rt, ok := routes[base.Request]
		if !ok {
			log.Debugf("Ignoring unknown request %q", base.Request)
			continue
		}
		if err := rt.handle(data); err != nil {
			if rt.fatal {
				log.Warnf("Invalid %s payload: %v. Closing.", base.Request, err)
				return fmt.Errorf("%w: %s: %v", errBadRequest, base.Request, err)
			}
			log.Warnf("Invalid %s payload: %v. Dropping.", base.Request, err)
		}
	}
}

// writePump drains the connection's outbox onto the socket and pings it while idle.
// When the game closes the connection, the socket is closed once the outbox is empty.
func writePump(ctx context.Context, c *websocket.Conn, conn *game.Connection, log logrus.FieldLogger) {
	for {
		nextCtx, cancel := context.WithTimeout(ctx, pingInterval)
		msg, err := conn.Next(nextCtx)
		cancel()

		switch {
		case err == nil:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				log.Warnf("Failed to write to websocket: %v", err)
				return
			}
		case errors.Is(err, game.ErrConnectionClosed):
			c.Close(websocket.StatusNormalClosure, "connection closed by server")
			return
		case ctx.Err() != nil:
			return
		default:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("Ping failed: %v", err)
				return
			}
		}
	}
}

// closeCodeFor maps a game registration error to a websocket close code.
func closeCodeFor(err error) websocket.StatusCode {
	switch {
	case errors.Is(err, game.ErrAlreadyConnected):
		return websocket.StatusCode(RoleTakenError)
	case errors.Is(err, game.ErrAlreadyOnline):
		return websocket.StatusCode(NameTakenError)
	case errors.Is(err, game.ErrInvalidName):
		return websocket.StatusCode(InvalidNameError)
	case errors.Is(err, game.ErrGameEnded):
		return websocket.StatusCode(InvalidLobbyIDError)
	}
	return websocket.StatusInternalError
}
