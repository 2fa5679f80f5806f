// internal/game/actions.go
package game

// Reveal opens the clue in category col, position row.
// Repeated or out-of-range reveals are ignored.
func (g *Game) Reveal(row, col int) bool {
	return g.apply("", "reveal", map[string]interface{}{"row": row, "col": col}, func() bool {
		return g.reveal(row, col)
	})
}

// PlayerReveal lets the active player pick the next clue.
func (g *Game) PlayerReveal(name string, row, col int) bool {
	return g.apply(name, "reveal", map[string]interface{}{"row": row, "col": col}, func() bool {
		if g.state.ActivePlayer == "" || g.state.ActivePlayer != name {
			return false
		}
		return g.reveal(row, col)
	})
}

// reveal assumes lock is held.
func (g *Game) reveal(row, col int) bool {
	s := g.state
	if s.StateType != PhaseBoard && s.StateType != PhaseResponse {
		return false
	}
	r := g.round()
	idx := r.CellIndex(row, col)
	if idx < 0 {
		return false
	}
	bit := uint64(1) << uint(idx)
	if s.CluesShown&bit != 0 {
		return false
	}
	clue, _ := r.ClueAt(row, col)

	g.supersedeTimer()
	s.CluesShown |= bit
	s.Category = r.Categories[col].Category
	s.Clue = clue.Clue
	s.Response = clue.Response
	s.Media = clue.Media
	s.Cost = clue.Cost
	s.clearBuzz()
	s.RespondedPlayers.Clear()

	if clue.IsDailyDouble {
		s.StateType = PhaseDailyDouble
		return true
	}
	s.StateType = PhaseClue
	g.scheduleAutoplay(timerAutoOpen)
	return true
}

// SetBuzzersOpen opens or closes the buzzers for the current clue.
func (g *Game) SetBuzzersOpen(open bool) bool {
	action := "close"
	if open {
		action = "open"
	}
	return g.apply("", action, nil, func() bool {
		s := g.state
		if s.StateType != PhaseClue || s.BuzzersOpen == open {
			return false
		}
		if open && s.BuzzedPlayer != "" {
			return false
		}
		g.supersedeTimer()
		s.BuzzersOpen = open
		if open {
			g.scheduleAutoplay(timerAutoClose)
		}
		return true
	})
}

// Buzz registers name as the first to buzz in. Only one buzz wins per opening.
func (g *Game) Buzz(name string) bool {
	return g.apply(name, "buzz", nil, func() bool {
		s := g.state
		if !s.BuzzersOpen || s.RespondedPlayers.Has(name) {
			return false
		}
		if _, ok := s.Players[name]; !ok {
			return false
		}
		g.supersedeTimer()
		s.lockInBuzz(name)
		return true
	})
}

// Correct grades the buzzed player's answer.
func (g *Game) Correct(correct bool) bool {
	return g.apply("", "correct", map[string]interface{}{"correct": correct}, func() bool {
		return g.correct(correct)
	})
}

// PlayerCorrect is a hostless self-grade from the buzzed player after they declared a response.
func (g *Game) PlayerCorrect(name string, correct bool) bool {
	return g.apply(name, "correct", map[string]interface{}{"correct": correct}, func() bool {
		s := g.state
		if g.Mode != ModeHostless || s.BuzzedPlayer != name || !s.BuzzedResponded {
			return false
		}
		return g.correct(correct)
	})
}

// correct assumes lock is held.
func (g *Game) correct(correct bool) bool {
	s := g.state
	if s.BuzzedPlayer == "" {
		return false
	}
	buzzed := s.BuzzedPlayer
	if p, ok := s.Players[buzzed]; ok {
		if correct {
			p.Balance += s.Cost
		} else {
			p.Balance -= s.Cost
		}
	}
	if correct {
		s.ActivePlayer = buzzed
	}
	g.supersedeTimer()

	if g.round().IsFinal() {
		g.evaluateFinalResponses()
		return true
	}

	if correct || s.everyoneResponded() {
		s.clearBuzz()
		g.enterResponse()
		return true
	}

	s.clearBuzz()
	s.BuzzersOpen = true
	g.scheduleAutoplay(timerAutoClose)
	return true
}

// DeclareResponded marks that the buzzed player has given their answer (hostless only).
// From then on that player alone may see the correct response and grade themselves.
func (g *Game) DeclareResponded(name string) bool {
	return g.apply(name, "responded", nil, func() bool {
		s := g.state
		if g.Mode != ModeHostless || s.BuzzedPlayer != name || s.BuzzedResponded {
			return false
		}
		s.BuzzedResponded = true
		s.RespondedPlayers.Add(name)
		return true
	})
}

// ShowResponse reveals the answer once nobody is buzzed in and the buzzers are shut.
func (g *Game) ShowResponse() bool {
	return g.apply("", "response", nil, func() bool {
		s := g.state
		if s.BuzzersOpen || s.BuzzedPlayer != "" || g.finalInProgress() {
			return false
		}
		g.supersedeTimer()
		g.enterResponse()
		return true
	})
}

// enterResponse assumes lock is held.
func (g *Game) enterResponse() {
	g.state.StateType = PhaseResponse
	g.state.RespondedPlayers.Clear()
}

// ShowBoard returns every client to the board.
func (g *Game) ShowBoard() bool {
	return g.apply("", "board", nil, func() bool {
		s := g.state
		if g.finalInProgress() {
			return false
		}
		g.supersedeTimer()
		s.StateType = PhaseBoard
		s.clearBuzz()
		s.RespondedPlayers.Clear()
		return true
	})
}

// NextRound advances to the next round, going straight to wagering for a final round.
func (g *Game) NextRound() bool {
	return g.apply("", "next_round", nil, func() bool {
		s := g.state
		if s.RoundIdx+1 >= len(g.Rounds) {
			return false
		}
		g.supersedeTimer()
		s.RoundIdx++
		s.CluesShown = 0
		s.clearBuzz()
		s.RespondedPlayers.Clear()

		r := g.round()
		s.BareRound = r.Bare()
		if r.IsFinal() {
			s.Category = r.Category
			s.Clue = ""
			s.Response = ""
			s.Media = ""
			s.Cost = 0
			s.StateType = PhaseFinalWager
		} else {
			s.StateType = PhaseBoard
		}
		g.broadcastCategories()
		return true
	})
}

// SetActivePlayer picks who chooses the next clue.
func (g *Game) SetActivePlayer(name string) bool {
	return g.apply("", "player", map[string]interface{}{"player": name}, func() bool {
		if _, ok := g.state.Players[name]; !ok {
			return false
		}
		g.state.ActivePlayer = name
		return true
	})
}

// RandomizeActivePlayer hands control to a random registered player.
func (g *Game) RandomizeActivePlayer() bool {
	return g.apply("", "randomize_active_player", nil, func() bool {
		names := g.state.PlayerNames()
		if len(names) == 0 {
			return false
		}
		g.state.ActivePlayer = names[g.rng.Intn(len(names))]
		return true
	})
}

// RemovePlayer deletes a player entry, their pending submissions, and closes their socket.
func (g *Game) RemovePlayer(name string) bool {
	return g.apply("", "remove", map[string]interface{}{"player": name}, func() bool {
		s := g.state
		p, ok := s.Players[name]
		if !ok {
			return false
		}
		if p.conn != nil {
			p.conn.Close()
		}
		delete(s.Players, name)
		delete(s.Wagers, name)
		delete(s.PlayerResponses, name)
		s.RespondedPlayers.Remove(name)
		wasBuzzed := s.BuzzedPlayer == name
		if wasBuzzed {
			s.BuzzedPlayer = ""
			s.BuzzedResponded = false
		}
		if s.ActivePlayer == name {
			s.ActivePlayer = ""
		}
		if wasBuzzed && g.round().IsFinal() && s.StateType == PhaseClue {
			// they were being graded; move on to the next final response
			g.evaluateFinalResponses()
			return true
		}
		g.advanceFinal()
		return true
	})
}

// SetPlayerBalance overwrites a player's balance.
func (g *Game) SetPlayerBalance(name string, amount int) bool {
	return g.apply("", "set_player_balance", map[string]interface{}{"player": name, "amount": amount}, func() bool {
		p, ok := g.state.Players[name]
		if !ok {
			return false
		}
		p.Balance = amount
		return true
	})
}
