// internal/game/utils.go
package game

import (
	"encoding/json"
)

// encode marshals an outbound message.
func encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// send marshals v and queues it on conn, logging instead of failing. Assumes lock is held.
func (g *Game) send(conn *Connection, v interface{}) {
	data, err := encode(v)
	if err != nil {
		g.Log.Warnf("Failed to marshal message for connection %s: %v", conn.ID, err)
		return
	}
	conn.Write(data)
}
