package engine

// SettleRound turns hand totals into round deltas. Without a caller
// (caller < 0) every delta equals the hand total. The Pablo caller gets
// -PabloPenalty when tied for the lowest hand, otherwise the highest other
// hand is added to theirs. The returned bonus is nil without a caller.
//
//	scores [5 12 3], caller 2 → deltas [5 12 -7], bonus -10
//	scores [5 12 3], caller 1 → deltas [5 17 3],  bonus 5
func SettleRound(scores []int, caller int) (deltas []int, bonus *int) {
	deltas = append([]int(nil), scores...)
	if caller < 0 || caller >= len(scores) {
		return deltas, nil
	}

	lowest := scores[0]
	for _, s := range scores[1:] {
		lowest = min(lowest, s)
	}

	var b int
	if scores[caller] <= lowest {
		b = -PabloPenalty
	} else {
		first := true
		for i, s := range scores {
			if i == caller {
				continue
			}
			if first || s > b {
				b = s
				first = false
			}
		}
	}
	deltas[caller] += b
	return deltas, &b
}

// scoreRound settles the current round and moves to roundEnd or finished.
// A card still held from a stock draw goes to the discard pile first.
func (g *Game) scoreRound() {
	s := &g.state
	if s.DrawPending() && s.LastAction.Source == SourceStock {
		s.Discard = append(s.Discard, *s.LastAction.Card)
	}
	if s.DrawPending() || s.PabloWindowOpen() {
		s.LastAction = nil
	}
	s.ActiveTrick = nil

	scores := make([]int, len(s.Players))
	for i, p := range s.Players {
		p.RoundScore = p.HandValue()
		scores[i] = p.RoundScore
	}
	caller := -1
	if s.PabloCalled {
		caller = s.PlayerIndex(s.PabloCallerID)
	}
	deltas, bonus := SettleRound(scores, caller)

	entry := RoundHistory{
		RoundNumber:   s.RoundNumber,
		PlayerScores:  make(map[string]int, len(s.Players)),
		RoundDeltas:   make(map[string]int, len(s.Players)),
		PabloCallerID: s.PabloCallerID,
		PabloBonus:    bonus,
		EndedAt:       g.now(),
	}
	gameOver := false
	for i, p := range s.Players {
		entry.PlayerScores[p.ID] = scores[i]
		entry.RoundDeltas[p.ID] = deltas[i]
		p.TotalScore += deltas[i]
		if p.TotalScore >= s.Settings.TargetScore {
			gameOver = true
		}
	}
	s.RoundHistory = append(s.RoundHistory, entry)

	if gameOver {
		s.Phase = PhaseFinished
		s.RoundEndsAt = nil
		return
	}
	s.Phase = PhaseRoundEnd
	ends := g.now().Add(g.roundEndDelay)
	s.RoundEndsAt = &ends
}
