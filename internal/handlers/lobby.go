// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/trivia/internal/content"
	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// gameCreated is the body returned by the start endpoint.
type gameCreated struct {
	Message string `json:"message"`
	LobbyID string `json:"lobby_id"`
}

type lobbyListing struct {
	LobbyID string `json:"lobby_id"`
	Created int64  `json:"created"`
}

type gameDetails struct {
	Players    []string  `json:"players"`
	Categories []string  `json:"categories"`
	Mode       game.Mode `json:"mode"`
	Created    int64     `json:"created"`
}

// StartGameHandler creates a lobby for the content id in the path.
// The optional ?mode= query selects hosted (default) or hostless play.
func StartGameHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		contentID := ps.ByName("content")
		mode, err := game.ParseMode(r.URL.Query().Get("mode"))
		if err != nil {
			http.Error(w, "invalid mode, expected hosted or hostless", http.StatusBadRequest)
			return
		}

		g, err := gs.CreateGame(r.Context(), contentID, mode)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				http.Error(w, "Error: no game #"+contentID+" found", http.StatusNotFound)
				return
			}
			gs.Log.Warnf("Failed to create game %q: %v", contentID, err)
			http.Error(w, "Sorry, something went wrong: "+err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, gameCreated{Message: "Game created successfully", LobbyID: g.LobbyID})
	}
}

// EndGameHandler ends a lobby. Ending an unknown lobby still succeeds.
func EndGameHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, err := gs.EndGame(r.Context(), ps.ByName("lobby")); err != nil && !errors.Is(err, ErrLobbyNotFound) {
			gs.Log.Warnf("Failed to end lobby %s: %v", ps.ByName("lobby"), err)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Success"))
	}
}

// ListGamesHandler lists live lobbies, oldest first.
func ListGamesHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		games := gs.Store.List()
		out := make([]lobbyListing, 0, len(games))
		for _, g := range games {
			out = append(out, lobbyListing{LobbyID: g.LobbyID, Created: g.Created.UnixMilli()})
		}
		writeJSON(w, out)
	}
}

// DescribeGameHandler returns the players, categories, and mode of one lobby.
func DescribeGameHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		g, ok := gs.Game(ps.ByName("lobby"))
		if !ok {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		sum := g.Describe()
		writeJSON(w, gameDetails{
			Players:    sum.Players,
			Categories: sum.Categories,
			Mode:       sum.Mode,
			Created:    sum.Created,
		})
	}
}

// QRHandler generates a PNG QR code pointing players at the lobby's join page.
func QRHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		lobbyID := ps.ByName("lobby")
		if _, ok := gs.Game(lobbyID); !ok {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(joinURL(gs.PublicURL, r, lobbyID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// joinURL builds <base>/play/<lobby>. Without a configured base it is derived from the request,
// respecting TLS and X-Forwarded-Proto.
func joinURL(base string, r *http.Request, lobbyID string) string {
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimSuffix(base, "/") + "/play/" + lobbyID
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
