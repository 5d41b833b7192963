package engine

import "strconv"

// NewCard builds a card with its value resolved against settings.
func NewCard(suit Suit, rank Rank, settings Settings) Card {
	c := Card{Suit: suit, Rank: rank}
	switch rank {
	case RankJoker:
		c.IsJoker = true
		c.Value = JokerValue
	case RankAce:
		c.Value = 1
	case RankJack:
		c.Value = settings.FaceCardValues.J
	case RankQueen:
		c.Value = settings.FaceCardValues.Q
	case RankKing:
		c.Value = settings.FaceCardValues.K
	default:
		v, err := strconv.Atoi(string(rank))
		if err == nil {
			c.Value = v
		}
	}
	return c
}

// NewDeck builds the unshuffled deck: 4 suits x 13 ranks, then the two
// jokers when enabled.
func NewDeck(settings Settings) []Card {
	deck := make([]Card, 0, 54)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, NewCard(suit, rank, settings))
		}
	}
	if settings.JokersEnabled {
		// red and black joker
		deck = append(deck, NewCard(SuitHearts, RankJoker, settings))
		deck = append(deck, NewCard(SuitSpades, RankJoker, settings))
	}
	return deck
}

// TrickFor returns the trick granted by a card, if any.
func TrickFor(c Card) (TrickType, bool) {
	switch c.Rank {
	case RankSeven:
		return TrickSwap, true
	case RankEight:
		return TrickSpy, true
	}
	return "", false
}
