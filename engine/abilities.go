package engine

import "fmt"

// activateTrick plays a drawn 7 or 8 for its effect. The card goes to the
// discard pile and the table waits for the owner to resolve the trick.
func (g *Game) activateTrick(a ActivateTrick) error {
	s := &g.state
	if !s.Settings.SpecialTricksEnabled {
		return ErrTricksDisabled
	}
	if _, err := g.requireTurn(a.PlayerID); err != nil {
		return err
	}
	if !s.DrawPending() {
		return ErrMustDrawFirst
	}
	trick, ok := TrickFor(*s.LastAction.Card)
	if !ok {
		return ErrNoTrickCard
	}

	played := g.takeDrawn()
	s.Discard = append(s.Discard, played)
	s.ActiveTrick = &ActiveTrick{Type: trick, PlayerID: a.PlayerID, CardRank: played.Rank}
	s.Phase = PhaseTrickActive
	s.LastAction = &LastAction{
		Kind:      ActionActivateTrick,
		PlayerID:  a.PlayerID,
		Card:      &played,
		Timestamp: g.now(),
	}
	return nil
}

// requireTrick checks that playerID owns the active trick. An empty want
// accepts either trick type.
func (g *Game) requireTrick(playerID string, want TrickType) (*Player, error) {
	s := &g.state
	if s.Phase != PhaseTrickActive || s.ActiveTrick == nil {
		return nil, ErrNoActiveTrick
	}
	p := s.Player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if s.ActiveTrick.PlayerID != playerID {
		return nil, ErrNotTrickOwner
	}
	if want != "" && s.ActiveTrick.Type != want {
		return nil, ErrWrongTrick
	}
	return p, nil
}

// slot returns the card at idx of player id, validating both.
func (s *GameState) slot(id string, idx int) (*Player, error) {
	p := s.Player(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if idx < 0 || idx >= HandSize {
		return nil, ErrInvalidCardIndex
	}
	if p.Cards[idx] == nil {
		return nil, ErrEmptySlot
	}
	return p, nil
}

// executeSwap exchanges one of the owner's cards with any player's card,
// whatever the two cards are.
func (g *Game) executeSwap(a ExecuteSwap) error {
	owner, err := g.requireTrick(a.PlayerID, TrickSwap)
	if err != nil {
		return err
	}
	s := &g.state
	if _, err := s.slot(owner.ID, a.SourceCardIndex); err != nil {
		return err
	}
	target, err := s.slot(a.TargetPlayerID, a.TargetCardIndex)
	if err != nil {
		return err
	}

	owner.Cards[a.SourceCardIndex], target.Cards[a.TargetCardIndex] =
		target.Cards[a.TargetCardIndex], owner.Cards[a.SourceCardIndex]
	s.dropReveals(owner.ID, a.SourceCardIndex)
	s.dropReveals(target.ID, a.TargetCardIndex)

	idx := a.SourceCardIndex
	g.resolveTrick(&LastAction{
		Kind:      ActionExecuteSwap,
		PlayerID:  a.PlayerID,
		CardIndex: &idx,
		Timestamp: g.now(),
	})
	return nil
}

// executeSpy reveals one card to the owner only. No card moves.
func (g *Game) executeSpy(a ExecuteSpy) error {
	if _, err := g.requireTrick(a.PlayerID, TrickSpy); err != nil {
		return err
	}
	s := &g.state
	target, err := s.slot(a.TargetPlayerID, a.TargetCardIndex)
	if err != nil {
		return err
	}

	s.Reveals = append(s.Reveals, Reveal{
		ViewerID:  a.PlayerID,
		PlayerID:  a.TargetPlayerID,
		CardIndex: a.TargetCardIndex,
		Card:      *target.Cards[a.TargetCardIndex],
	})
	idx := a.TargetCardIndex
	g.resolveTrick(&LastAction{
		Kind:      ActionExecuteSpy,
		PlayerID:  a.PlayerID,
		CardIndex: &idx,
		Timestamp: g.now(),
	})
	return nil
}

func (g *Game) skipTrick(a SkipTrick) error {
	if _, err := g.requireTrick(a.PlayerID, ""); err != nil {
		return err
	}
	g.resolveTrick(&LastAction{Kind: ActionSkipTrick, PlayerID: a.PlayerID, Timestamp: g.now()})
	return nil
}

// resolveTrick leaves trickActive and finishes the turn the normal way.
func (g *Game) resolveTrick(record *LastAction) {
	s := &g.state
	s.ActiveTrick = nil
	s.Phase = PhasePlaying
	g.endTurn(record)
}

// clearReveal drops every reveal addressed to viewerID.
func (g *Game) clearReveal(viewerID string) {
	s := &g.state
	kept := s.Reveals[:0]
	for _, r := range s.Reveals {
		if r.ViewerID != viewerID {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.Reveals = kept
}

// dropReveals forgets every reveal of a slot whose card just changed.
func (s *GameState) dropReveals(playerID string, idx int) {
	kept := s.Reveals[:0]
	for _, r := range s.Reveals {
		if r.PlayerID != playerID || r.CardIndex != idx {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.Reveals = kept
}

// revealed reports whether r still points at the card that was spied.
func (s *GameState) revealed(r Reveal) bool {
	p := s.Player(r.PlayerID)
	if p == nil || r.CardIndex < 0 || r.CardIndex >= HandSize {
		return false
	}
	c := p.Cards[r.CardIndex]
	return c != nil && *c == r.Card
}

// SpyResult returns the card behind the latest reveal for viewerID.
func (g *Game) SpyResult(viewerID string) (Reveal, Card, bool) {
	s := &g.state
	for i := len(s.Reveals) - 1; i >= 0; i-- {
		r := s.Reveals[i]
		if r.ViewerID != viewerID {
			continue
		}
		if s.revealed(r) {
			return r, r.Card, true
		}
	}
	return Reveal{}, Card{}, false
}
