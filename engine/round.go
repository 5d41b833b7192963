package engine

// startRound shuffles a fresh deck, deals HandSize cards to every player
// one at a time, and turns one card over to start the discard pile.
func (g *Game) startRound() error {
	s := &g.state
	if s.Phase != PhaseWaiting {
		return ErrCannotStartRound
	}
	if len(s.Players) == 0 {
		return ErrNoPlayers
	}

	seed := g.seeds()
	g.rng = NewRNG(seed)
	stock := g.rng.Shuffle(NewDeck(s.Settings))

	g.clearRoundState()
	for _, p := range s.Players {
		p.Cards = [HandSize]*Card{}
		p.RoundScore = 0
		if !s.Settings.ScoreboardCarryover {
			p.TotalScore = 0
		}
	}
	for slot := 0; slot < HandSize; slot++ {
		for _, p := range s.Players {
			c := stock[len(stock)-1]
			stock = stock[:len(stock)-1]
			p.Cards[slot] = &c
		}
	}
	s.Discard = []Card{stock[len(stock)-1]}
	s.Stock = stock[:len(stock)-1]

	s.ShuffleSeed = seed
	s.RoundNumber++
	s.CurrentPlayerIndex = s.firstConnectedFrom(0)
	s.Phase = PhasePeeking
	return nil
}

// clearRoundState resets every per-round field. Players' hands and scores
// are left to the caller.
func (g *Game) clearRoundState() {
	s := &g.state
	s.Stock = nil
	s.Discard = nil
	s.LastAction = nil
	s.PabloCalled = false
	s.PabloCallerID = ""
	s.FinalRoundStarted = false
	s.FinalRoundPlayerIndex = 0
	s.PlayersWhoHadFinalTurn = nil
	s.RoundEndsAt = nil
	s.PeekedCards = map[string][]int{}
	s.ReadyPlayers = nil
	s.ActiveTrick = nil
	s.Reveals = nil
}

func (g *Game) peekCard(a PeekCard) error {
	s := &g.state
	if s.Phase != PhasePeeking {
		return ErrNotPeeking
	}
	if s.Player(a.PlayerID) == nil {
		return ErrUnknownPlayer
	}
	if a.CardIndex < 0 || a.CardIndex >= HandSize {
		return ErrInvalidCardIndex
	}
	peeked := s.PeekedCards[a.PlayerID]
	for _, idx := range peeked {
		if idx == a.CardIndex {
			return ErrAlreadyPeekedCard
		}
	}
	if len(peeked) >= maxPeeks {
		return ErrPeekLimit
	}
	s.PeekedCards[a.PlayerID] = append(peeked, a.CardIndex)
	return nil
}

func (g *Game) playerReady(a PlayerReady) error {
	s := &g.state
	if s.Phase != PhasePeeking {
		return ErrNotPeeking
	}
	if s.Player(a.PlayerID) == nil {
		return ErrUnknownPlayer
	}
	if !s.isReady(a.PlayerID) {
		s.ReadyPlayers = append(s.ReadyPlayers, a.PlayerID)
	}
	g.checkAllReady()
	return nil
}

func (s *GameState) isReady(id string) bool {
	for _, r := range s.ReadyPlayers {
		if r == id {
			return true
		}
	}
	return false
}

// checkAllReady starts play once every connected player is ready.
// Disconnected players cannot signal and do not hold the table up.
func (g *Game) checkAllReady() {
	s := &g.state
	if s.Phase != PhasePeeking {
		return
	}
	for _, p := range s.Players {
		if p.IsConnected && !s.isReady(p.ID) {
			return
		}
	}
	s.Phase = PhasePlaying
	s.ReadyPlayers = nil
	s.CurrentPlayerIndex = s.firstConnectedFrom(s.CurrentPlayerIndex)
}
