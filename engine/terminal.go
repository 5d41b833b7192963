package engine

// endRound is the host-triggered settlement. Round end after the last
// final turn goes through scoreRound directly.
func (g *Game) endRound() error {
	if !g.state.inTurnPhase() {
		return ErrCannotEndRound
	}
	g.scoreRound()
	return nil
}

// finishRound returns a scored table to waiting. Totals, round number and
// history are kept. Outside roundEnd it does nothing, so a stale timer
// cannot disturb a table that was reset in the meantime.
func (g *Game) finishRound() error {
	s := &g.state
	if s.Phase != PhaseRoundEnd {
		return nil
	}
	g.clearRoundState()
	for _, p := range s.Players {
		p.Cards = [HandSize]*Card{}
	}
	s.CurrentPlayerIndex = 0
	s.Phase = PhaseWaiting
	return nil
}

// resetGame clears scores, history and round state. Calling it twice in a
// row yields the same state both times.
func (g *Game) resetGame() {
	s := &g.state
	g.clearRoundState()
	for _, p := range s.Players {
		p.Cards = [HandSize]*Card{}
		p.TotalScore = 0
		p.RoundScore = 0
	}
	s.RoundHistory = nil
	s.RoundNumber = 0
	s.ShuffleSeed = 0
	s.CurrentPlayerIndex = 0
	s.Phase = PhaseWaiting
}

// IsFinished reports whether the game has reached the target score.
func (g *Game) IsFinished() bool { return g.state.Phase == PhaseFinished }

// Winners returns the players with the lowest total score. Empty until the
// game is finished.
func (g *Game) Winners() []*Player {
	s := &g.state
	if s.Phase != PhaseFinished || len(s.Players) == 0 {
		return nil
	}
	best := s.Players[0].TotalScore
	for _, p := range s.Players[1:] {
		best = min(best, p.TotalScore)
	}
	var out []*Player
	for _, p := range s.Players {
		if p.TotalScore == best {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}
