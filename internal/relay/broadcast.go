package relay

import (
	"github.com/castlegate/gambit/internal/session"
)

// Fan-out helpers. All sends for one broadcast are issued in the same
// dispatch step, so successive broadcasts for a session reach each client in
// causal order. Delivery itself is fire-and-forget: clients that have left
// the roster or are not open are skipped without error.

// send delivers a frame to a single client, if it is still connected.
func (d *Dispatcher) send(clientID uint64, payload []byte) {
	if c, ok := d.roster.get(clientID); ok {
		c.trySend(payload)
	}
}

// broadcastParticipants delivers a frame to every participant except the
// client with id except (0 excludes nobody).
func (d *Dispatcher) broadcastParticipants(s *session.Session, payload []byte, except uint64) {
	for _, p := range s.Participants {
		if p.Client == except {
			continue
		}
		d.send(p.Client, payload)
	}
}

// broadcastSpectators delivers a frame to every spectator.
func (d *Dispatcher) broadcastSpectators(s *session.Session, payload []byte) {
	for _, id := range s.Spectators {
		d.send(id, payload)
	}
}
