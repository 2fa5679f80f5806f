// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/trivia/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the lobby and role endpoints behind request logging.
func NewRouter(gs *GameServer, logger logrus.FieldLogger) http.Handler {
	mux := httprouter.New()

	mux.POST("/api/start/:content", StartGameHandler(gs))
	mux.POST("/api/end/:lobby", EndGameHandler(gs))
	mux.GET("/api/games", ListGamesHandler(gs))
	mux.GET("/api/game/:lobby", DescribeGameHandler(gs))
	mux.GET("/api/game/:lobby/qr", QRHandler(gs))

	mux.GET("/api/ws/:lobby/board", BoardWSHandler(logger, gs))
	mux.GET("/api/ws/:lobby/host", HostWSHandler(logger, gs))
	mux.GET("/api/ws/:lobby/buzzer", PlayerWSHandler(logger, gs))

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		logger.WithField("path", r.URL.Path).Errorf("Handler panic: %v", v)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	return middleware.LogMiddleware(logger)(mux)
}
