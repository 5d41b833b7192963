package engine

// LegalActions lists the actions playerID may take right now. Room-level
// actions (start, end, reset) are included for the host. The list is
// advisory: Apply remains the authority.
func (g *Game) LegalActions(playerID string) []ActionKind {
	s := &g.state
	p := s.Player(playerID)
	if p == nil {
		return nil
	}

	var out []ActionKind
	switch s.Phase {
	case PhaseWaiting:
		if p.IsHost && len(s.Players) > 0 {
			out = append(out, ActionStartRound)
		}

	case PhasePeeking:
		if len(s.PeekedCards[playerID]) < maxPeeks {
			out = append(out, ActionPeekCard)
		}
		if !s.isReady(playerID) {
			out = append(out, ActionPlayerReady)
		}

	case PhasePlaying:
		if cur := s.CurrentPlayer(); cur != nil && cur.ID == playerID {
			out = append(out, g.legalTurn()...)
		}
		if p.IsHost {
			out = append(out, ActionEndRound)
		}

	case PhaseTrickActive:
		if s.ActiveTrick != nil && s.ActiveTrick.PlayerID == playerID {
			switch s.ActiveTrick.Type {
			case TrickSwap:
				out = append(out, ActionExecuteSwap)
			case TrickSpy:
				out = append(out, ActionExecuteSpy)
			}
			out = append(out, ActionSkipTrick)
		}
		if p.IsHost {
			out = append(out, ActionEndRound)
		}
	}

	if p.IsHost {
		out = append(out, ActionResetGame)
	}
	return out
}

// legalTurn covers the current player's options in the playing phase.
func (g *Game) legalTurn() []ActionKind {
	s := &g.state
	switch {
	case s.DrawPending():
		out := []ActionKind{ActionReplace, ActionDiscard}
		if _, ok := TrickFor(*s.LastAction.Card); ok && s.Settings.SpecialTricksEnabled {
			out = append(out, ActionActivateTrick)
		}
		return out

	case s.PabloWindowOpen():
		return []ActionKind{ActionCallPablo, ActionPabloWindow}
	}

	var out []ActionKind
	if len(s.Stock) > 0 || len(s.Discard) > 0 {
		out = append(out, ActionDraw)
	}
	out = append(out, ActionCallPablo)
	return out
}
