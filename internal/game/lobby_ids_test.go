// internal/game/lobby_ids_test.go
package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLobbyIDsAreUniqueThenFallBack(t *testing.T) {
	ids := newLobbyIDs([]string{"silly", "tall"}, []string{"rat", "mom"}, rand.New(rand.NewSource(1)))
	assert.Equal(t, 4, ids.Remaining())

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		id := ids.Take()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.True(t, seen["silly-rat"])
	assert.True(t, seen["tall-mom"])

	overflow := ids.Take()
	_, err := uuid.Parse(overflow)
	assert.NoError(t, err, "exhausted pool falls back to a uuid")

	ids.Release(overflow)
	assert.Equal(t, 0, ids.Remaining())
	ids.Release("silly-rat")
	ids.Release("silly-rat")
	assert.Equal(t, 1, ids.Remaining())
	assert.Equal(t, "silly-rat", ids.Take())
}

func TestStoreListsOldestFirst(t *testing.T) {
	s := NewStore()
	older := NewGame("tall-mom", testDefinition(), ModeHosted)
	newer := NewGame("silly-rat", testDefinition(), ModeHosted)
	newer.Created = older.Created.Add(time.Second)

	s.Add(newer)
	s.Add(older)
	list := s.List()
	if assert.Len(t, list, 2) {
		assert.Equal(t, "tall-mom", list[0].LobbyID)
	}

	g, ok := s.Get("silly-rat")
	assert.True(t, ok)
	assert.Same(t, newer, g)
	assert.Same(t, newer, s.Delete("silly-rat"))
	assert.Nil(t, s.Delete("silly-rat"))
	_, ok = s.Get("silly-rat")
	assert.False(t, ok)
}
