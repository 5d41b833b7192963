package engine

// RNG is a 32-bit linear congruential generator. Given the same seed it
// always produces the same shuffle, so a round can be replayed from
// GameState.ShuffleSeed.
type RNG struct {
	seed  uint32
	state uint32
}

// NewRNG returns a generator starting at seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{seed: seed, state: seed}
}

// Seed returns the seed the generator was created with.
func (r *RNG) Seed() uint32 { return r.seed }

// Next returns a float in [0, 1).
func (r *RNG) Next() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state) / 0x100000000
}

// NextInt returns an integer in [min, max] inclusive.
func (r *RNG) NextInt(min, max int) int {
	return int(r.Next()*float64(max-min+1)) + min
}

// Shuffle returns a shuffled copy of cards (Fisher-Yates, walking down from
// the last index). The input slice is not modified.
func (r *RNG) Shuffle(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for i := len(out) - 1; i > 0; i-- {
		j := r.NextInt(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
