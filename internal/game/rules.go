// internal/game/rules.go
package game

import "fmt"

const (
	// MinWager is the smallest accepted wager, daily double or final.
	MinWager = 5
	// DefaultFinalCost is used when grading a final response that has no recorded wager.
	DefaultFinalCost = 3000
)

// maxWager is the larger of the player's balance and the round's default max wager. Assumes lock is held.
func (g *Game) maxWager(name string) int {
	limit := g.round().DefaultMaxWager
	if p, ok := g.state.Players[name]; ok && p.Balance > limit {
		limit = p.Balance
	}
	return limit
}

// checkWager validates amount for name and returns the rejection reason, or "" when acceptable.
// Assumes lock is held.
func (g *Game) checkWager(name string, amount int) string {
	max := g.maxWager(name)
	switch {
	case amount > max:
		return fmt.Sprintf("Wager too high (max wager: %d)", max)
	case amount < MinWager:
		return fmt.Sprintf("Wager too low (min wager: %d)", MinWager)
	}
	return ""
}
