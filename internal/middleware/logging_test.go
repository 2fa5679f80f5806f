// internal/middleware/logging_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/game/silly-rat", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/api/game/silly-rat", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
}

func TestLogWebSocketDisconnectIncludesError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	LogWebSocketDisconnect(logger, "127.0.0.1:1", "/api/ws/silly-rat/host", "host", assert.AnError)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, assert.AnError, entry.Data["error"])
	assert.Equal(t, "host", entry.Data["role"])
}
