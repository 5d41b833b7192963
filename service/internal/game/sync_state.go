// internal/game/sync_state.go
package game

import (
	"context"

	"github.com/kamikaze305/pablo-golf/engine"
)

// fireEvent sends ev to every connected player.
func (g *PabloGame) fireEvent(ev Event) {
	ev.RoomID = g.ID
	st := g.engine.State()
	for _, p := range st.Players {
		if p.IsConnected {
			g.notifier.Send(p.ID, ev)
		}
	}
}

// fireEventToPlayer sends ev to a single player if they are connected.
func (g *PabloGame) fireEventToPlayer(playerID string, ev Event) {
	ev.RoomID = g.ID
	st := g.engine.State()
	if p := st.Player(playerID); p != nil && p.IsConnected {
		g.notifier.Send(playerID, ev)
	}
}

// sendSyncState sends playerID their projected state.
func (g *PabloGame) sendSyncState(playerID string) {
	view := engine.Project(g.engine.State(), playerID)
	g.fireEventToPlayer(playerID, Event{Type: EventStatePatch, State: &view})
}

// broadcastSyncStateToAll sends every connected player their own
// projection of the current state.
func (g *PabloGame) broadcastSyncStateToAll() {
	for id, view := range engine.ProjectAll(g.engine.State()) {
		v := view
		g.notifier.Send(id, Event{Type: EventStatePatch, RoomID: g.ID, State: &v})
	}
}

// broadcastPlayerTurn tells the player on turn what they may do.
func (g *PabloGame) broadcastPlayerTurn(st engine.GameState) {
	if st.Phase != engine.PhasePlaying && st.Phase != engine.PhaseTrickActive {
		return
	}
	cur := st.CurrentPlayer()
	if cur == nil || !cur.IsConnected {
		return
	}
	g.fireEventToPlayer(cur.ID, Event{Type: EventTurnYou, PlayerID: cur.ID, Payload: map[string]interface{}{
		"legalActions": g.engine.LegalActions(cur.ID),
		"pabloWindow":  st.PabloWindowOpen(),
	}})
}

// Resync resends playerID their projected state and, if it is their turn,
// the legal actions.
func (g *PabloGame) Resync(ctx context.Context, playerID string) error {
	return g.do(ctx, func() error {
		st := g.engine.State()
		if st.Player(playerID) == nil {
			return ErrPlayerNotInRoom
		}
		g.sendSyncState(playerID)
		if cur := st.CurrentPlayer(); cur != nil && cur.ID == playerID {
			g.broadcastPlayerTurn(st)
		}
		return nil
	})
}
