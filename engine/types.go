package engine

import "time"

// Suit of a card. SuitHidden only ever appears in projected views.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
	SuitHidden   Suit = "hidden"
)

// Rank of a card. RankHidden only ever appears in projected views.
type Rank string

const (
	RankAce    Rank = "A"
	RankTwo    Rank = "2"
	RankThree  Rank = "3"
	RankFour   Rank = "4"
	RankFive   Rank = "5"
	RankSix    Rank = "6"
	RankSeven  Rank = "7"
	RankEight  Rank = "8"
	RankNine   Rank = "9"
	RankTen    Rank = "10"
	RankJack   Rank = "J"
	RankQueen  Rank = "Q"
	RankKing   Rank = "K"
	RankJoker  Rank = "JOKER"
	RankHidden Rank = "hidden"
)

// Suits and Ranks list the standard deck in build order.
var (
	Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}
	Ranks = []Rank{
		RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
		RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
	}
)

// Card is immutable once created. Value is fixed at creation from the room
// settings (face-card values are configurable per room).
type Card struct {
	Suit    Suit `json:"suit"`
	Rank    Rank `json:"rank"`
	Value   int  `json:"value"`
	IsJoker bool `json:"isJoker"`
}

// HiddenCard is the sentinel placed in projected views. It carries no value.
var HiddenCard = Card{Suit: SuitHidden, Rank: RankHidden}

// IsHidden reports whether c is the view-time sentinel.
func (c Card) IsHidden() bool { return c.Rank == RankHidden }

func (c Card) String() string {
	if c.IsJoker {
		return "Joker"
	}
	return string(c.Rank) + " of " + string(c.Suit)
}

// Phase is the game phase of a room.
type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhasePeeking     Phase = "peeking"
	PhasePlaying     Phase = "playing"
	PhaseTrickActive Phase = "trickActive"
	PhaseRoundEnd    Phase = "roundEnd"
	PhaseScored      Phase = "scored"
	PhaseFinished    Phase = "finished"
)

// Revealed reports whether every hand is public in this phase.
func (p Phase) Revealed() bool {
	return p == PhaseRoundEnd || p == PhaseScored || p == PhaseFinished
}

// PileSource selects which pile a draw comes from.
type PileSource string

const (
	SourceStock   PileSource = "stock"
	SourceDiscard PileSource = "discard"
)

// HandSize is the number of slots in every hand (a 2x2 grid).
const HandSize = 4

// Player is one seat at the table. Players stay in the state for the life
// of the room; leaving only flips IsConnected.
type Player struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ShortID     string          `json:"shortId"`
	Cards       [HandSize]*Card `json:"cards"`
	IsConnected bool            `json:"isConnected"`
	IsHost      bool            `json:"isHost"`
	TotalScore  int             `json:"totalScore"`
	RoundScore  int             `json:"roundScore"`
	JoinedAt    time.Time       `json:"joinedAt"`
}

// HandValue sums the values of the non-empty slots.
func (p *Player) HandValue() int {
	total := 0
	for _, c := range p.Cards {
		if c != nil {
			total += c.Value
		}
	}
	return total
}

// CardCount returns the number of non-empty slots.
func (p *Player) CardCount() int {
	n := 0
	for _, c := range p.Cards {
		if c != nil {
			n++
		}
	}
	return n
}

// LastAction records the most recent action. A Kind of ActionDraw means a
// drawn card is pending; ActionPabloWindow means the Pablo window is open.
type LastAction struct {
	Kind      ActionKind `json:"type"`
	PlayerID  string     `json:"playerId"`
	Source    PileSource `json:"source,omitempty"`
	Card      *Card      `json:"card,omitempty"`
	CardIndex *int       `json:"cardIndex,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// TrickType names the effect granted by a trick card.
type TrickType string

const (
	TrickSwap TrickType = "swap"
	TrickSpy  TrickType = "spy"
)

// ActiveTrick is present only while the phase is trickActive.
type ActiveTrick struct {
	Type     TrickType `json:"type"`
	PlayerID string    `json:"playerId"`
	CardRank Rank      `json:"cardRank"`
}

// Reveal marks one slot as visible to a single viewer (a spy result).
// Card is the card that was spied; the slot is shown only while it still
// holds that card.
type Reveal struct {
	ViewerID  string `json:"viewerId"`
	PlayerID  string `json:"playerId"`
	CardIndex int    `json:"cardIndex"`
	Card      Card   `json:"card"`
}

// RoundHistory is appended once per completed round and never modified.
type RoundHistory struct {
	RoundNumber   int            `json:"roundNumber"`
	PlayerScores  map[string]int `json:"playerScores"`
	RoundDeltas   map[string]int `json:"roundDeltas"`
	PabloCallerID string         `json:"pabloCallerId,omitempty"`
	PabloBonus    *int           `json:"pabloBonus,omitempty"`
	EndedAt       time.Time      `json:"endedAt"`
}

// GameState is the authoritative aggregate for one room.
type GameState struct {
	RoomID                 string           `json:"roomId"`
	Settings               Settings         `json:"settings"`
	Players                []*Player        `json:"players"`
	CurrentPlayerIndex     int              `json:"currentPlayerIndex"`
	Stock                  []Card           `json:"stock"`
	Discard                []Card           `json:"discard"`
	Phase                  Phase            `json:"gamePhase"`
	RoundNumber            int              `json:"roundNumber"`
	ShuffleSeed            uint32           `json:"shuffleSeed"`
	LastAction             *LastAction      `json:"lastAction,omitempty"`
	PabloCalled            bool             `json:"pabloCalled"`
	PabloCallerID          string           `json:"pabloCallerId,omitempty"`
	FinalRoundStarted      bool             `json:"finalRoundStarted"`
	FinalRoundPlayerIndex  int              `json:"finalRoundPlayerIndex"`
	PlayersWhoHadFinalTurn []string         `json:"playersWhoHadFinalTurn"`
	RoundEndsAt            *time.Time       `json:"roundEndTimer,omitempty"`
	RoundHistory           []RoundHistory   `json:"roundHistory"`
	PeekedCards            map[string][]int `json:"peekedCards"`
	ReadyPlayers           []string         `json:"readyPlayers"`
	ActiveTrick            *ActiveTrick     `json:"activeTrick,omitempty"`
	Reveals                []Reveal         `json:"reveals,omitempty"`
}

// PlayerIndex returns the index of id in Players, or -1.
func (s *GameState) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Player returns the player with id, or nil.
func (s *GameState) Player(id string) *Player {
	if i := s.PlayerIndex(id); i >= 0 {
		return s.Players[i]
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil when there are
// no players.
func (s *GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

// Host returns the current host, or nil.
func (s *GameState) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// ConnectedCount returns how many players are connected.
func (s *GameState) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// DrawPending reports whether a drawn card is waiting to be placed.
func (s *GameState) DrawPending() bool {
	return s.LastAction != nil && s.LastAction.Kind == ActionDraw
}

// PabloWindowOpen reports whether the current player may still call Pablo
// before the turn passes.
func (s *GameState) PabloWindowOpen() bool {
	return s.LastAction != nil && s.LastAction.Kind == ActionPabloWindow
}

// CardsInPlay counts every card belonging to the round: stock, discard,
// hand slots, and a card drawn from stock that has not been placed yet.
func (s *GameState) CardsInPlay() int {
	n := len(s.Stock) + len(s.Discard)
	for _, p := range s.Players {
		n += p.CardCount()
	}
	if s.DrawPending() && s.LastAction.Source == SourceStock {
		n++
	}
	return n
}

// Clone returns a deep copy. Cards are immutable, but slots are copied so
// the copy can be redacted independently.
func (s *GameState) Clone() GameState {
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		for j, c := range p.Cards {
			if c != nil {
				card := *c
				cp.Cards[j] = &card
			}
		}
		out.Players[i] = &cp
	}
	out.Stock = append([]Card(nil), s.Stock...)
	out.Discard = append([]Card(nil), s.Discard...)
	if s.LastAction != nil {
		la := *s.LastAction
		if la.Card != nil {
			card := *la.Card
			la.Card = &card
		}
		if la.CardIndex != nil {
			idx := *la.CardIndex
			la.CardIndex = &idx
		}
		out.LastAction = &la
	}
	out.PlayersWhoHadFinalTurn = append([]string(nil), s.PlayersWhoHadFinalTurn...)
	if s.RoundEndsAt != nil {
		t := *s.RoundEndsAt
		out.RoundEndsAt = &t
	}
	out.RoundHistory = make([]RoundHistory, len(s.RoundHistory))
	for i, h := range s.RoundHistory {
		out.RoundHistory[i] = h.clone()
	}
	out.PeekedCards = make(map[string][]int, len(s.PeekedCards))
	for id, idx := range s.PeekedCards {
		out.PeekedCards[id] = append([]int(nil), idx...)
	}
	out.ReadyPlayers = append([]string(nil), s.ReadyPlayers...)
	if s.ActiveTrick != nil {
		t := *s.ActiveTrick
		out.ActiveTrick = &t
	}
	out.Reveals = append([]Reveal(nil), s.Reveals...)
	return out
}

func (h RoundHistory) clone() RoundHistory {
	out := h
	out.PlayerScores = make(map[string]int, len(h.PlayerScores))
	for k, v := range h.PlayerScores {
		out.PlayerScores[k] = v
	}
	out.RoundDeltas = make(map[string]int, len(h.RoundDeltas))
	for k, v := range h.RoundDeltas {
		out.RoundDeltas[k] = v
	}
	if h.PabloBonus != nil {
		b := *h.PabloBonus
		out.PabloBonus = &b
	}
	return out
}
