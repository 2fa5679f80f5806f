// internal/game/special_actions.go
package game

import (
	"fmt"
	"sort"
)

// Wager handles a daily double or final round wager from name.
// The player always receives an input-response telling them whether it was accepted.
func (g *Game) Wager(name string, amount int) bool {
	return g.apply(name, "wager", map[string]interface{}{"amount": amount}, func() bool {
		s := g.state
		if _, ok := s.Players[name]; !ok {
			return false
		}

		switch s.StateType {
		case PhaseDailyDouble:
			if s.ActivePlayer != "" && s.ActivePlayer != name {
				g.sendInputResponse(name, false, fmt.Sprintf("Only %s may wager on this clue", s.ActivePlayer))
				return false
			}
		case PhaseFinalWager:
		default:
			g.sendInputResponse(name, false, "No wager is being taken right now")
			return false
		}

		if reason := g.checkWager(name, amount); reason != "" {
			g.sendInputResponse(name, false, reason)
			return false
		}
		g.sendInputResponse(name, true, "Wager accepted")

		if s.StateType == PhaseDailyDouble {
			g.supersedeTimer()
			s.Cost = amount
			s.StateType = PhaseClue
			// the wagering player answers alone, nobody else gets to buzz
			s.lockInBuzz(name)
			for p := range s.Players {
				s.RespondedPlayers.Add(p)
			}
			return true
		}

		w := amount
		s.Wagers[name] = &w
		g.advanceFinal()
		return true
	})
}

// Respond records a final round response from name.
func (g *Game) Respond(name, response string) bool {
	return g.apply(name, "response", nil, func() bool {
		s := g.state
		if _, ok := s.Players[name]; !ok || s.StateType != PhaseFinalClue {
			return false
		}
		if response == "" {
			g.sendInputResponse(name, false, "Input cannot be empty")
			return false
		}
		prev, pending := s.PlayerResponses[name]
		if !pending || prev != nil {
			g.sendInputResponse(name, false, "Response already submitted")
			return false
		}
		g.sendInputResponse(name, true, "Input received")

		r := response
		s.PlayerResponses[name] = &r
		g.advanceFinal()
		return true
	})
}

// ForceContinue moves the final round along without waiting for stragglers: missing wagers
// become the round's default max wager and missing responses are graded as blank.
func (g *Game) ForceContinue() bool {
	return g.apply("", "continue", nil, func() bool {
		s := g.state
		switch s.StateType {
		case PhaseFinalWager:
			if len(s.Wagers) == 0 {
				return false
			}
			for name, w := range s.Wagers {
				if w == nil {
					def := g.round().DefaultMaxWager
					s.Wagers[name] = &def
				}
			}
		case PhaseFinalClue:
			if len(s.PlayerResponses) == 0 {
				return false
			}
			for name, r := range s.PlayerResponses {
				if r == nil {
					blank := ""
					s.PlayerResponses[name] = &blank
				}
			}
		default:
			return false
		}
		g.advanceFinal()
		return true
	})
}

// advanceFinal moves FinalWager -> FinalClue once every wager is in, and starts grading
// once every final response is in. Assumes lock is held.
func (g *Game) advanceFinal() {
	s := g.state
	r := g.round()
	if !r.IsFinal() {
		return
	}
	switch s.StateType {
	case PhaseFinalWager:
		if allSubmitted(s.Wagers) {
			s.StateType = PhaseFinalClue
			s.Category = r.Category
			s.Clue = r.Clue
			s.Response = r.Response
			s.clearBuzz()
			s.RespondedPlayers.Clear()
		}
	case PhaseFinalClue:
		if allSubmitted(s.PlayerResponses) {
			g.evaluateFinalResponses()
		}
	}
}

// finalInProgress reports whether the final round is not yet fully graded. Assumes lock is held.
func (g *Game) finalInProgress() bool {
	s := g.state
	if !g.round().IsFinal() {
		return false
	}
	switch s.StateType {
	case PhaseFinalWager, PhaseFinalClue:
		return true
	}
	if s.BuzzedPlayer != "" {
		return true
	}
	for _, r := range s.PlayerResponses {
		if r != nil {
			return true
		}
	}
	return false
}

func allSubmitted[T any](slots map[string]*T) bool {
	if len(slots) == 0 {
		return false
	}
	for _, v := range slots {
		if v == nil {
			return false
		}
	}
	return true
}

// evaluateFinalResponses puts the next submitted final response up for grading, in name order.
// Each call consumes one player's wager and response; with none left the answer is shown.
// Assumes lock is held.
func (g *Game) evaluateFinalResponses() {
	s := g.state
	r := g.round()
	if !r.IsFinal() {
		return
	}

	names := make([]string, 0, len(s.PlayerResponses))
	for name, resp := range s.PlayerResponses {
		if resp != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		s.clearBuzz()
		s.Response = r.Response
		g.enterResponse()
		return
	}
	sort.Strings(names)
	name := names[0]

	s.StateType = PhaseClue
	s.Response = fmt.Sprintf("%s's response: %s\nCorrect response: %s", name, *s.PlayerResponses[name], r.Response)
	s.Cost = DefaultFinalCost
	if w := s.Wagers[name]; w != nil {
		s.Cost = *w
	}
	s.BuzzersOpen = true
	s.lockInBuzz(name)

	delete(s.PlayerResponses, name)
	delete(s.Wagers, name)
}
