package engine

import (
	"reflect"
	"testing"
)

// TestCardValues checks every rank against its point value.
func TestCardValues(t *testing.T) {
	s := DefaultSettings()
	s.FaceCardValues = FaceCardValues{J: 11, Q: 12, K: 0}

	tests := []struct {
		rank Rank
		want int
	}{
		{RankAce, 1},
		{RankTwo, 2},
		{RankFive, 5},
		{RankNine, 9},
		{RankTen, 10},
		{RankJack, 11},
		{RankQueen, 12},
		{RankKing, 0},
		{RankJoker, -5},
	}
	for _, tt := range tests {
		c := NewCard(SuitClubs, tt.rank, s)
		if c.Value != tt.want {
			t.Errorf("%s value = %d, want %d", tt.rank, c.Value, tt.want)
		}
		if c.IsJoker != (tt.rank == RankJoker) {
			t.Errorf("%s IsJoker = %v", tt.rank, c.IsJoker)
		}
	}
}

func TestNewDeck(t *testing.T) {
	s := DefaultSettings()
	deck := NewDeck(s)
	if len(deck) != 54 {
		t.Fatalf("deck with jokers has %d cards, want 54", len(deck))
	}
	jokers := 0
	seen := map[Card]bool{}
	for _, c := range deck {
		if c.IsJoker {
			jokers++
		}
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if jokers != 2 {
		t.Errorf("jokers = %d, want 2", jokers)
	}

	s.JokersEnabled = false
	if n := len(NewDeck(s)); n != 52 {
		t.Errorf("deck without jokers has %d cards, want 52", n)
	}
}

func TestTrickFor(t *testing.T) {
	s := DefaultSettings()
	if tr, ok := TrickFor(NewCard(SuitHearts, RankSeven, s)); !ok || tr != TrickSwap {
		t.Errorf("7 → %q %v, want swap", tr, ok)
	}
	if tr, ok := TrickFor(NewCard(SuitHearts, RankEight, s)); !ok || tr != TrickSpy {
		t.Errorf("8 → %q %v, want spy", tr, ok)
	}
	if _, ok := TrickFor(NewCard(SuitHearts, RankNine, s)); ok {
		t.Error("9 should not be a trick card")
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	s.TargetScore = 40
	if err := s.Validate(); err == nil {
		t.Error("target score 40 accepted")
	}
	s = DefaultSettings()
	s.MaxPlayers = 7
	if err := s.Validate(); err == nil {
		t.Error("max players 7 accepted")
	}
	s = Settings{}.WithDefaults()
	if s.TargetScore != DefaultTargetScore || s.MaxPlayers != MaxPlayers || s.FaceCardValues.K != DefaultFaceCardValue {
		t.Errorf("WithDefaults = %+v", s)
	}
}

// TestCloneIsDeep mutates a clone and checks the original is unchanged.
func TestCloneIsDeep(t *testing.T) {
	g := playingGame(t, 3)
	orig := g.State()
	cp := g.State()

	cp.Players[0].Cards[0] = &HiddenCard
	cp.Players[1].TotalScore = 99
	cp.Stock[0] = HiddenCard
	cp.PeekedCards["p1"] = append(cp.PeekedCards["p1"], 3)
	cp.Discard = append(cp.Discard, HiddenCard)

	if !reflect.DeepEqual(orig, g.State()) {
		t.Fatal("mutating a clone changed the game state")
	}
}
