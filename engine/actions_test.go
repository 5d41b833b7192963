package engine

import (
	"testing"
)

// TestDrawFromStockPopsImmediately verifies the stock shrinks on draw and
// the card is held in LastAction.
func TestDrawFromStockPopsImmediately(t *testing.T) {
	g := playingGame(t, 2)
	top := g.state.Stock[len(g.state.Stock)-1]
	stockLen := len(g.state.Stock)

	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	st := g.State()
	if len(st.Stock) != stockLen-1 {
		t.Errorf("stock = %d, want %d", len(st.Stock), stockLen-1)
	}
	if !st.DrawPending() || *st.LastAction.Card != top {
		t.Errorf("LastAction = %+v, want pending draw of %v", st.LastAction, top)
	}
	if st.CardsInPlay() != 54 {
		t.Errorf("CardsInPlay = %d, want 54", st.CardsInPlay())
	}
}

// TestDrawFromDiscardIsDeferred verifies the discard card stays on the pile
// until the player commits.
func TestDrawFromDiscardIsDeferred(t *testing.T) {
	g := playingGame(t, 2)
	top := g.state.Discard[0]

	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceDiscard})
	if len(g.state.Discard) != 1 {
		t.Fatalf("discard = %d cards after draw, want 1", len(g.state.Discard))
	}
	old := *g.state.Players[0].Cards[2]
	mustApply(t, g, Replace{PlayerID: "p1", CardIndex: 2})

	st := g.State()
	if *st.Players[0].Cards[2] != top {
		t.Errorf("slot 2 = %v, want %v", *st.Players[0].Cards[2], top)
	}
	if len(st.Discard) != 1 || st.Discard[0] != old {
		t.Errorf("discard = %v, want [%v]", st.Discard, old)
	}
}

func TestDrawPreconditions(t *testing.T) {
	g := playingGame(t, 2)
	expectErr(t, g, Draw{PlayerID: "p2", Source: SourceStock}, ErrNotYourTurn)
	expectErr(t, g, Draw{PlayerID: "ghost", Source: SourceStock}, ErrUnknownPlayer)

	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	expectErr(t, g, Draw{PlayerID: "p1", Source: SourceStock}, ErrAlreadyDrew)

	mustApply(t, g, Discard{PlayerID: "p1"})
	expectErr(t, g, Draw{PlayerID: "p1", Source: SourceStock}, ErrPabloWindowOpen)

	peeking := newTestGame(t, 2)
	mustApply(t, peeking, StartRound{})
	expectErr(t, peeking, Draw{PlayerID: "p1", Source: SourceStock}, ErrNotPlaying)
}

func TestDrawEmptyPiles(t *testing.T) {
	g := playingGame(t, 2)
	g.state.Discard = nil
	expectErr(t, g, Draw{PlayerID: "p1", Source: SourceDiscard}, ErrDiscardEmpty)

	g.state.Stock = nil
	expectErr(t, g, Draw{PlayerID: "p1", Source: SourceStock}, ErrStockEmpty)
}

// TestDrawReshufflesDiscard verifies an empty stock is refilled from the
// discard pile, keeping the top discard card in place.
func TestDrawReshufflesDiscard(t *testing.T) {
	g := playingGame(t, 2)
	s := &g.state
	s.Discard = append(s.Discard, s.Stock...)
	s.Stock = nil
	top := s.Discard[len(s.Discard)-1]
	total := s.CardsInPlay()

	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	if len(s.Discard) != 1 || s.Discard[0] != top {
		t.Errorf("discard = %v, want only %v", s.Discard, top)
	}
	if s.CardsInPlay() != total {
		t.Errorf("CardsInPlay = %d, want %d", s.CardsInPlay(), total)
	}
}

func TestReplaceAndDiscardRequireDraw(t *testing.T) {
	g := playingGame(t, 2)
	expectErr(t, g, Replace{PlayerID: "p1", CardIndex: 0}, ErrMustDrawFirst)
	expectErr(t, g, Discard{PlayerID: "p1"}, ErrMustDrawFirst)

	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	expectErr(t, g, Replace{PlayerID: "p1", CardIndex: 4}, ErrInvalidCardIndex)
	expectErr(t, g, Replace{PlayerID: "p1", CardIndex: -1}, ErrInvalidCardIndex)
}

// TestReplaceOpensPabloWindow verifies the turn does not pass until the
// window is closed.
func TestReplaceOpensPabloWindow(t *testing.T) {
	g := playingGame(t, 3)
	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	drawn := *g.state.LastAction.Card
	mustApply(t, g, Replace{PlayerID: "p1", CardIndex: 1})

	st := g.State()
	if !st.PabloWindowOpen() {
		t.Fatalf("LastAction = %+v, want open window", st.LastAction)
	}
	if currentID(g) != "p1" {
		t.Fatalf("current = %s, want p1 during window", currentID(g))
	}
	if *st.Players[0].Cards[1] != drawn {
		t.Errorf("slot 1 = %v, want %v", *st.Players[0].Cards[1], drawn)
	}

	expectErr(t, g, PabloWindow{PlayerID: "p2"}, ErrNotYourTurn)
	mustApply(t, g, PabloWindow{PlayerID: "p1"})
	if currentID(g) != "p2" {
		t.Errorf("current = %s, want p2", currentID(g))
	}
	if g.state.LastAction != nil {
		t.Errorf("LastAction = %+v, want nil", g.state.LastAction)
	}
	expectErr(t, g, PabloWindow{PlayerID: "p2"}, ErrNoPabloWindow)
}

func TestCallPabloStartsFinalRound(t *testing.T) {
	g := playingGame(t, 3)
	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	expectErr(t, g, CallPablo{PlayerID: "p1"}, ErrDrawPending)
	mustApply(t, g, Discard{PlayerID: "p1"})
	mustApply(t, g, CallPablo{PlayerID: "p1"})

	st := g.State()
	if !st.PabloCalled || st.PabloCallerID != "p1" || !st.FinalRoundStarted {
		t.Fatalf("pablo flags = %v %q %v", st.PabloCalled, st.PabloCallerID, st.FinalRoundStarted)
	}
	if len(st.PlayersWhoHadFinalTurn) != 1 || st.PlayersWhoHadFinalTurn[0] != "p1" {
		t.Errorf("final turns = %v, want [p1]", st.PlayersWhoHadFinalTurn)
	}
	if currentID(g) != "p2" {
		t.Errorf("current = %s, want p2", currentID(g))
	}

	// p2 plays; the final round skips the window.
	mustApply(t, g, Draw{PlayerID: "p2", Source: SourceStock})
	mustApply(t, g, Discard{PlayerID: "p2"})
	if currentID(g) != "p3" {
		t.Fatalf("current = %s, want p3", currentID(g))
	}
	if g.state.PabloWindowOpen() {
		t.Error("window opened during the final round")
	}

	// A second call is recorded but changes nothing.
	mustApply(t, g, CallPablo{PlayerID: "p3"})
	if g.state.PabloCallerID != "p1" || currentID(g) != "p3" {
		t.Errorf("second call changed caller/turn: %q %s", g.state.PabloCallerID, currentID(g))
	}

	mustApply(t, g, Draw{PlayerID: "p3", Source: SourceStock})
	mustApply(t, g, Replace{PlayerID: "p3", CardIndex: 0})
	if g.Phase() != PhaseRoundEnd && g.Phase() != PhaseFinished {
		t.Fatalf("phase = %s, want roundEnd", g.Phase())
	}
	if len(g.state.RoundHistory) != 1 {
		t.Errorf("history = %d entries, want 1", len(g.state.RoundHistory))
	}
}

// TestCallPabloAtTurnStart verifies Pablo may be called before drawing.
func TestCallPabloAtTurnStart(t *testing.T) {
	g := playingGame(t, 2)
	mustApply(t, g, CallPablo{PlayerID: "p1"})
	if currentID(g) != "p2" {
		t.Fatalf("current = %s, want p2", currentID(g))
	}
	mustApply(t, g, Draw{PlayerID: "p2", Source: SourceDiscard})
	mustApply(t, g, Discard{PlayerID: "p2"})
	if g.Phase() != PhaseRoundEnd {
		t.Errorf("phase = %s, want roundEnd", g.Phase())
	}
}

// TestFinalRoundSkipsDisconnected verifies a disconnected player cannot
// hold up the end of the round.
func TestFinalRoundSkipsDisconnected(t *testing.T) {
	g := playingGame(t, 3)
	_ = g.SetConnected("p2", false)
	mustApply(t, g, CallPablo{PlayerID: "p1"})
	if currentID(g) != "p3" {
		t.Fatalf("current = %s, want p3", currentID(g))
	}
	mustApply(t, g, Draw{PlayerID: "p3", Source: SourceStock})
	mustApply(t, g, Discard{PlayerID: "p3"})
	if g.Phase() != PhaseRoundEnd {
		t.Errorf("phase = %s, want roundEnd", g.Phase())
	}
}

// TestTurnOnlyAdvancesOnCommit checks the turn never moves mid-draw.
func TestTurnOnlyAdvancesOnCommit(t *testing.T) {
	g := playingGame(t, 3)
	mustApply(t, g, Draw{PlayerID: "p1", Source: SourceStock})
	if currentID(g) != "p1" {
		t.Fatalf("turn moved on draw")
	}
	mustApply(t, g, Replace{PlayerID: "p1", CardIndex: 3})
	if currentID(g) != "p1" {
		t.Fatalf("turn moved before the window closed")
	}
	mustApply(t, g, PabloWindow{PlayerID: "p1"})
	if currentID(g) != "p2" {
		t.Fatalf("current = %s, want p2", currentID(g))
	}
}
