// internal/game/special_actions.go
package game

import (
	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/engine"
)

// deliverSpyResult sends the spied card privately to viewerID and arms the
// timer that hides it again.
// Runs on the room goroutine right after a successful ExecuteSpy.
func (g *PabloGame) deliverSpyResult(viewerID string) {
	reveal, card, ok := g.engine.SpyResult(viewerID)
	if !ok {
		g.log.WithField("player", viewerID).Error("Spy succeeded but no reveal recorded")
		return
	}
	c := card
	g.fireEventToPlayer(viewerID, Event{Type: EventSpyResult, PlayerID: reveal.PlayerID, Card: &c, Payload: map[string]interface{}{
		"targetPlayerId":  reveal.PlayerID,
		"targetCardIndex": reveal.CardIndex,
		"expiresInMs":     g.timings.SpyRevealDuration.Milliseconds(),
	}})
	g.log.WithFields(logrus.Fields{
		"player": viewerID,
		"target": reveal.PlayerID,
		"index":  reveal.CardIndex,
	}).Debug("Spy result delivered")
	g.scheduleRevealExpiry(viewerID)
}

// scheduleRevealExpiry clears viewerID's reveals after SpyRevealDuration.
// A newer spy by the same viewer restarts the countdown.
func (g *PabloGame) scheduleRevealExpiry(viewerID string) {
	g.revealGen[viewerID]++
	gen := g.revealGen[viewerID]
	g.after(g.timings.SpyRevealDuration, func() {
		if g.revealGen[viewerID] != gen {
			return
		}
		delete(g.revealGen, viewerID)
		st := g.engine.State()
		if !hasReveal(st, viewerID) {
			return
		}
		_ = g.apply(st, "", engine.ClearReveal{ViewerID: viewerID})
	})
}

func hasReveal(st engine.GameState, viewerID string) bool {
	for _, r := range st.Reveals {
		if r.ViewerID == viewerID {
			return true
		}
	}
	return false
}
