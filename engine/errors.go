package engine

import "errors"

// Precondition errors. Any of these leaves the state untouched.
var (
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrUnknownAction     = errors.New("unknown action type")
	ErrUnknownPlayer     = errors.New("player not found")
	ErrPlayerExists      = errors.New("player already in game")
	ErrGameFull          = errors.New("game is full")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrCannotStartRound  = errors.New("cannot start round")
	ErrNoPlayers         = errors.New("no players")
	ErrNotPlaying        = errors.New("game is not in playing phase")
	ErrNotPeeking        = errors.New("not in peeking phase")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrStockEmpty        = errors.New("stock pile is empty")
	ErrDiscardEmpty      = errors.New("discard pile is empty")
	ErrAlreadyDrew       = errors.New("already drew a card this turn")
	ErrMustDrawFirst     = errors.New("must draw before replacing or discarding")
	ErrDrawPending       = errors.New("a drawn card must be placed first")
	ErrPabloWindowOpen   = errors.New("pablo window is open")
	ErrNoPabloWindow     = errors.New("no pablo window is open")
	ErrInvalidCardIndex  = errors.New("invalid card index")
	ErrEmptySlot         = errors.New("no card at that position")
	ErrPeekLimit         = errors.New("already peeked 2 cards")
	ErrAlreadyPeekedCard = errors.New("already peeked this card")
	ErrCannotEndRound    = errors.New("cannot end round")
	ErrTricksDisabled    = errors.New("special tricks are disabled")
	ErrNoTrickCard       = errors.New("drawn card is not a trick card")
	ErrNoActiveTrick     = errors.New("no trick is active")
	ErrNotTrickOwner     = errors.New("only the player who activated the trick can resolve it")
	ErrWrongTrick        = errors.New("action does not match the active trick")
	ErrTrickActive       = errors.New("a trick must be resolved first")
)
