// internal/game/events.go
package game

import (
	"github.com/kamikaze305/pablo-golf/engine"
)

// EventType represents the type of an event delivered to players.
type EventType string

// Event types sent to clients.
const (
	EventStatePatch        EventType = "state:patch"            // Private: projected state for one viewer.
	EventRoundStarted      EventType = "round:started"          // Public: a new round was dealt.
	EventTurnResult        EventType = "turn:result"            // Public: an action was applied.
	EventTurnYou           EventType = "turn:you"               // Private: it is your turn, with the legal actions.
	EventRoundScored       EventType = "round:scored"           // Public: round scored, includes the history entry.
	EventGameReset         EventType = "game:reset"             // Public: scores and history cleared.
	EventPabloCalled       EventType = "pablo:called"           // Public: the final round started.
	EventSpyResult         EventType = "trick:spyResult"        // Private: the card revealed by a spy trick.
	EventChatMessage       EventType = "chat:message"           // Public: chat line.
	EventPlayerJoined      EventType = "room:playerJoined"      // Public
	EventPlayerLeft        EventType = "room:playerLeft"        // Public
	EventPlayerReconnected EventType = "room:playerReconnected" // Public
	EventHostChanged       EventType = "room:hostChanged"       // Public
	EventError             EventType = "error"                  // Private: a request was rejected.
)

// Event is the envelope for everything pushed to a player.
type Event struct {
	Type     EventType         `json:"type"`
	RoomID   string            `json:"roomId,omitempty"`
	PlayerID string            `json:"playerId,omitempty"` // Player the event is about.
	Card     *engine.Card      `json:"card,omitempty"`
	State    *engine.GameState `json:"state,omitempty"` // Projected for the recipient.

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Notifier delivers an event to one player. Implementations must not
// block: Send is called from the room goroutine.
type Notifier interface {
	Send(playerID string, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(playerID string, ev Event)

func (f NotifierFunc) Send(playerID string, ev Event) { f(playerID, ev) }
