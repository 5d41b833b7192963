package engine

// Project returns the state as viewerID is allowed to see it. The input is
// not modified.
//
// Once a round is settled (roundEnd, scored, finished) nothing is hidden.
// While peeking, the viewer sees only the slots they peeked. Otherwise the
// viewer's own hand is face down, opponents' hands are face down unless
// that opponent is disconnected, and spy reveals are shown only to the
// player who spied. The stock is always face down.
func Project(state GameState, viewerID string) GameState {
	view := state.Clone()
	view.Settings.JoinPassword = ""

	if view.Phase.Revealed() {
		return view
	}

	for i := range view.Stock {
		view.Stock[i] = HiddenCard
	}

	for _, p := range view.Players {
		own := p.ID == viewerID
		for idx := range p.Cards {
			if p.Cards[idx] == nil || visible(&state, p, idx, own, viewerID) {
				continue
			}
			hidden := HiddenCard
			p.Cards[idx] = &hidden
		}
	}

	var reveals []Reveal
	for _, r := range view.Reveals {
		if r.ViewerID == viewerID && state.revealed(r) {
			reveals = append(reveals, r)
		}
	}
	view.Reveals = reveals

	if la := view.LastAction; la != nil && la.Card != nil && la.PlayerID != viewerID && !lastCardPublic(la) {
		hidden := HiddenCard
		la.Card = &hidden
	}
	return view
}

// visible decides a single slot for a non-settled phase.
func visible(s *GameState, p *Player, idx int, own bool, viewerID string) bool {
	if s.Phase == PhasePeeking {
		if !own {
			return false
		}
		for _, peeked := range s.PeekedCards[p.ID] {
			if peeked == idx {
				return true
			}
		}
		return false
	}

	for _, r := range s.Reveals {
		if r.ViewerID == viewerID && r.PlayerID == p.ID && r.CardIndex == idx && s.revealed(r) {
			return true
		}
	}
	if own {
		return false
	}
	return !p.IsConnected
}

// lastCardPublic reports whether the card in a LastAction ended up face up
// on the discard pile (or was taken from it).
func lastCardPublic(la *LastAction) bool {
	switch la.Kind {
	case ActionDraw:
		return la.Source == SourceDiscard
	case ActionDiscard, ActionActivateTrick:
		return true
	case ActionPabloWindow:
		// the window after a discard carries no slot index
		return la.CardIndex == nil
	}
	return false
}

// ProjectAll returns one view per connected player.
func ProjectAll(state GameState) map[string]GameState {
	views := make(map[string]GameState, len(state.Players))
	for _, p := range state.Players {
		if p.IsConnected {
			views[p.ID] = Project(state, p.ID)
		}
	}
	return views
}
