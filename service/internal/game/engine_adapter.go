// internal/game/engine_adapter.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kamikaze305/pablo-golf/engine"
)

var (
	// ErrUnknownRequest is returned for a request type that does not map
	// to a game action.
	ErrUnknownRequest = errors.New("unknown request type")
	ErrBadPayload     = errors.New("malformed payload")
)

// Request types of the game actions clients may send.
const (
	ReqStartRound    = "game:startRound"
	ReqEndRound      = "game:endRound"
	ReqResetGame     = "game:resetGame"
	ReqPeekCard      = "game:peekCard"
	ReqPlayerReady   = "game:playerReady"
	ReqDraw          = "turn:draw"
	ReqReplace       = "turn:replace"
	ReqDiscard       = "turn:discard"
	ReqCallPablo     = "turn:callPablo"
	ReqPabloWindow   = "turn:pabloWindow"
	ReqActivateTrick = "turn:activateTrick"
	ReqExecuteSwap   = "turn:executeSwap"
	ReqExecuteSpy    = "turn:executeSpy"
	ReqSkipTrick     = "turn:skipTrick"
)

type cardIndexPayload struct {
	CardIndex *int `json:"cardIndex"`
}

type drawPayload struct {
	Source engine.PileSource `json:"source"`
}

type swapPayload struct {
	SourceCardIndex *int   `json:"sourceCardIndex"`
	TargetPlayerID  string `json:"targetPlayerId"`
	TargetCardIndex *int   `json:"targetCardIndex"`
}

type spyPayload struct {
	TargetPlayerID  string `json:"targetPlayerId"`
	TargetCardIndex *int   `json:"targetCardIndex"`
}

// IsActionRequest reports whether typ is one of the game action requests.
func IsActionRequest(typ string) bool {
	switch typ {
	case ReqStartRound, ReqEndRound, ReqResetGame, ReqPeekCard, ReqPlayerReady,
		ReqDraw, ReqReplace, ReqDiscard, ReqCallPablo, ReqPabloWindow,
		ReqActivateTrick, ReqExecuteSwap, ReqExecuteSpy, ReqSkipTrick:
		return true
	}
	return false
}

// DecodeAction builds the engine action for a client request sent by
// playerID. The acting player always comes from the connection, never
// from the payload.
func DecodeAction(playerID, typ string, payload json.RawMessage) (engine.Action, error) {
	switch typ {
	case ReqStartRound:
		return engine.StartRound{}, nil
	case ReqEndRound:
		return engine.EndRound{}, nil
	case ReqResetGame:
		return engine.ResetGame{}, nil
	case ReqPlayerReady:
		return engine.PlayerReady{PlayerID: playerID}, nil
	case ReqDiscard:
		return engine.Discard{PlayerID: playerID}, nil
	case ReqCallPablo:
		return engine.CallPablo{PlayerID: playerID}, nil
	case ReqPabloWindow:
		return engine.PabloWindow{PlayerID: playerID}, nil
	case ReqActivateTrick:
		return engine.ActivateTrick{PlayerID: playerID}, nil
	case ReqSkipTrick:
		return engine.SkipTrick{PlayerID: playerID}, nil

	case ReqPeekCard, ReqReplace:
		var p cardIndexPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if p.CardIndex == nil {
			return nil, fmt.Errorf("%w: cardIndex is required", engine.ErrInvalidCardIndex)
		}
		if typ == ReqPeekCard {
			return engine.PeekCard{PlayerID: playerID, CardIndex: *p.CardIndex}, nil
		}
		return engine.Replace{PlayerID: playerID, CardIndex: *p.CardIndex}, nil

	case ReqDraw:
		var p drawPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if p.Source != engine.SourceStock && p.Source != engine.SourceDiscard {
			return nil, fmt.Errorf("%w: invalid draw source %q", ErrBadPayload, p.Source)
		}
		return engine.Draw{PlayerID: playerID, Source: p.Source}, nil

	case ReqExecuteSwap:
		var p swapPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if p.SourceCardIndex == nil || p.TargetCardIndex == nil {
			return nil, fmt.Errorf("%w: sourceCardIndex and targetCardIndex are required", engine.ErrInvalidCardIndex)
		}
		return engine.ExecuteSwap{
			PlayerID:        playerID,
			SourceCardIndex: *p.SourceCardIndex,
			TargetPlayerID:  p.TargetPlayerID,
			TargetCardIndex: *p.TargetCardIndex,
		}, nil

	case ReqExecuteSpy:
		var p spyPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		if p.TargetCardIndex == nil {
			return nil, fmt.Errorf("%w: targetCardIndex is required", engine.ErrInvalidCardIndex)
		}
		return engine.ExecuteSpy{
			PlayerID:        playerID,
			TargetPlayerID:  p.TargetPlayerID,
			TargetCardIndex: *p.TargetCardIndex,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, typ)
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrBadPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
