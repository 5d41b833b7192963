package engine

import "fmt"

const (
	MinPlayers = 2
	MaxPlayers = 6

	DefaultTargetScore = 100
	MinTargetScore     = 50
	MaxTargetScore     = 200

	DefaultFaceCardValue = 10
	JokerValue           = -5

	// PabloPenalty is subtracted from the caller's round score when the
	// caller holds (or ties for) the lowest hand.
	PabloPenalty = 10

	maxPeeks = 2
)

// FaceCardValues holds the configurable point values of J, Q and K.
type FaceCardValues struct {
	J int `json:"J"`
	Q int `json:"Q"`
	K int `json:"K"`
}

// Settings captures the room configuration. It is fixed once the room is
// created.
type Settings struct {
	// JokersEnabled adds two jokers (worth JokerValue) to the deck.
	JokersEnabled bool `json:"jokersEnabled"`

	// FaceCardValues sets the point values of J, Q and K.
	FaceCardValues FaceCardValues `json:"faceCardValues"`

	// MatchingRule is carried for clients; the engine does not act on it.
	MatchingRule bool `json:"matchingRule"`

	// TargetScore ends the game once any total reaches it.
	TargetScore int `json:"targetScore"`

	// MaxPlayers caps the number of seats.
	MaxPlayers int `json:"maxPlayers"`

	// ScoreboardCarryover keeps totals across rounds. When false, totals
	// are cleared at the start of every round.
	ScoreboardCarryover bool `json:"scoreboardCarryover"`

	// AutosaveRoundState hands every completed round to the archive.
	AutosaveRoundState bool `json:"autosaveRoundState"`

	// SpecialTricksEnabled allows 7 (swap) and 8 (spy) to be activated.
	SpecialTricksEnabled bool `json:"specialTricksEnabled"`

	// RoomKey is the short public identifier of the room.
	RoomKey string `json:"roomKey"`

	// JoinPassword is never serialized; the room manager keeps only a hash.
	JoinPassword string `json:"-"`
}

// DefaultSettings returns the standard Pablo settings.
func DefaultSettings() Settings {
	return Settings{
		JokersEnabled:        true,
		FaceCardValues:       FaceCardValues{J: DefaultFaceCardValue, Q: DefaultFaceCardValue, K: DefaultFaceCardValue},
		MatchingRule:         true,
		TargetScore:          DefaultTargetScore,
		MaxPlayers:           MaxPlayers,
		ScoreboardCarryover:  true,
		AutosaveRoundState:   true,
		SpecialTricksEnabled: true,
	}
}

// Validate checks ranges. Zero values for TargetScore and MaxPlayers are
// accepted and replaced by defaults in WithDefaults.
func (s Settings) Validate() error {
	if s.TargetScore != 0 && (s.TargetScore < MinTargetScore || s.TargetScore > MaxTargetScore) {
		return fmt.Errorf("%w: target score %d outside [%d, %d]", ErrInvalidSettings, s.TargetScore, MinTargetScore, MaxTargetScore)
	}
	if s.MaxPlayers != 0 && (s.MaxPlayers < MinPlayers || s.MaxPlayers > MaxPlayers) {
		return fmt.Errorf("%w: max players %d outside [%d, %d]", ErrInvalidSettings, s.MaxPlayers, MinPlayers, MaxPlayers)
	}
	for name, v := range map[string]int{"J": s.FaceCardValues.J, "Q": s.FaceCardValues.Q, "K": s.FaceCardValues.K} {
		if v < 0 || v > 25 {
			return fmt.Errorf("%w: face card %s value %d outside [0, 25]", ErrInvalidSettings, name, v)
		}
	}
	return nil
}

// WithDefaults fills zero-valued numeric fields. An all-zero
// FaceCardValues counts as unset.
func (s Settings) WithDefaults() Settings {
	if s.TargetScore == 0 {
		s.TargetScore = DefaultTargetScore
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = MaxPlayers
	}
	if s.FaceCardValues == (FaceCardValues{}) {
		s.FaceCardValues = FaceCardValues{J: DefaultFaceCardValue, Q: DefaultFaceCardValue, K: DefaultFaceCardValue}
	}
	return s
}
