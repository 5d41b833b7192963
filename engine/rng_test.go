package engine

import (
	"reflect"
	"testing"
)

// TestRNGSequence pins the generator to its recurrence.
func TestRNGSequence(t *testing.T) {
	r := NewRNG(1)
	want := []uint32{1015568748, 1586005467, 2165703038}
	for i, w := range want {
		got := r.Next()
		if exp := float64(w) / 0x100000000; got != exp {
			t.Fatalf("step %d: Next() = %v, want %v", i, got, exp)
		}
	}
	if r.Seed() != 1 {
		t.Errorf("Seed() = %d, want 1", r.Seed())
	}
}

func TestRNGNextIntRange(t *testing.T) {
	if got := NewRNG(42).NextInt(1, 6); got != 2 {
		t.Errorf("NextInt(1, 6) with seed 42 = %d, want 2", got)
	}
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.NextInt(3, 9)
		if v < 3 || v > 9 {
			t.Fatalf("NextInt(3, 9) = %d, out of range", v)
		}
	}
}

// TestShuffleDeterministic verifies equal seeds give equal shuffles and the
// input is left untouched.
func TestShuffleDeterministic(t *testing.T) {
	deck := NewDeck(DefaultSettings())
	orig := append([]Card(nil), deck...)

	a := NewRNG(99).Shuffle(deck)
	b := NewRNG(99).Shuffle(deck)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different shuffles")
	}
	if !reflect.DeepEqual(deck, orig) {
		t.Fatal("Shuffle modified its input")
	}
	if reflect.DeepEqual(a, orig) {
		t.Error("shuffle left the deck in build order")
	}

	c := NewRNG(100).Shuffle(deck)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced the same shuffle")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := NewDeck(DefaultSettings())
	shuffled := NewRNG(5).Shuffle(deck)
	if len(shuffled) != len(deck) {
		t.Fatalf("len = %d, want %d", len(shuffled), len(deck))
	}
	count := map[Card]int{}
	for _, c := range deck {
		count[c]++
	}
	for _, c := range shuffled {
		count[c]--
	}
	for c, n := range count {
		if n != 0 {
			t.Errorf("card %v count off by %d", c, n)
		}
	}
}
