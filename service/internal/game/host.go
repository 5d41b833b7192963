// internal/game/host.go
package game

import (
	"math/rand/v2"

	"github.com/kamikaze305/pablo-golf/engine"
)

// HostPolicy picks the next host among players when the current host
// leaves. It returns "" when no connected player remains.
type HostPolicy func(players []*engine.Player) string

// EarliestHost hands the room to the connected player who joined first.
func EarliestHost(players []*engine.Player) string {
	var best *engine.Player
	for _, p := range players {
		if !p.IsConnected {
			continue
		}
		if best == nil || p.JoinedAt.Before(best.JoinedAt) {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

// RandomHost hands the room to a uniformly chosen connected player.
func RandomHost(players []*engine.Player) string {
	var connected []string
	for _, p := range players {
		if p.IsConnected {
			connected = append(connected, p.ID)
		}
	}
	if len(connected) == 0 {
		return ""
	}
	return connected[rand.IntN(len(connected))]
}

// HostPolicyByName maps a config value to a policy. Unknown names get
// EarliestHost.
func HostPolicyByName(name string) HostPolicy {
	if name == "random" {
		return RandomHost
	}
	return EarliestHost
}
