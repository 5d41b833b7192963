// internal/room/janitor.go
package room

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often Run looks for abandoned rooms.
const DefaultSweepInterval = time.Minute

// Run deletes rooms that have had nobody connected for longer than
// IdleTTL. It blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	m.log.WithField("interval", interval).Info("Room janitor started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Room janitor stopping")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.WithField("rooms", n).Info("Reaped abandoned rooms")
			}
		}
	}
}

// Sweep deletes every room that has been empty for longer than IdleTTL
// and returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.RLock()
	var stale []string
	for id, e := range m.rooms {
		if !e.emptySince.IsZero() && e.emptySince.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.deleteRoom(id)
	}
	return len(stale)
}
