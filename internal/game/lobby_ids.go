// internal/game/lobby_ids.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	lobbyPrefixes = []string{
		"smarty", "dummy", "stinky", "enormous", "smelly", "bright", "handsome", "silly",
		"whiny", "tall", "short", "wily", "clever",
	}
	lobbySuffixes = []string{
		"rat", "boy", "girl", "eric", "olivia", "michael", "liv", "livvy", "mike", "connor",
		"savvy", "mom", "dad", "alex-trebek", "ken-jennings", "datadog", "oscar", "abby",
		"lucy", "oliver", "oscar-oliver",
	}
)

// LobbyIDs hands out memorable lobby ids. Once the word pairs run out it falls back to UUIDs.
type LobbyIDs struct {
	mu     sync.Mutex
	unused []string
	known  map[string]struct{}
}

// NewLobbyIDs shuffles every prefix-suffix pair.
func NewLobbyIDs() *LobbyIDs {
	return newLobbyIDs(lobbyPrefixes, lobbySuffixes, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newLobbyIDs(prefixes, suffixes []string, rng *rand.Rand) *LobbyIDs {
	ids := make([]string, 0, len(prefixes)*len(suffixes))
	for _, p := range prefixes {
		for _, s := range suffixes {
			ids = append(ids, p+"-"+s)
		}
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return &LobbyIDs{unused: ids, known: known}
}

// Take returns an unused id.
func (l *LobbyIDs) Take() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.unused); n > 0 {
		id := l.unused[n-1]
		l.unused = l.unused[:n-1]
		return id
	}
	return strings.ToLower(uuid.NewString())
}

// Release returns a word-pair id to the pool once its lobby is gone. UUID ids are dropped.
func (l *LobbyIDs) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.known[id]; !ok {
		return
	}
	for _, u := range l.unused {
		if u == id {
			return
		}
	}
	l.unused = append(l.unused, id)
}

// Remaining reports how many word-pair ids are left.
func (l *LobbyIDs) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.unused)
}
