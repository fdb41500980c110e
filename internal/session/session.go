// Package session holds the state machine for individual game sessions and
// the process-wide registry that owns them. Nothing in this package is safe
// for concurrent use; the dispatcher is the only mutator.
package session

import (
	"github.com/castlegate/gambit/internal/rules"
)

// Phase is the lifecycle state of a session.
type Phase int

const (
	// Forming sessions have fewer than two participants and no live game.
	Forming Phase = iota
	// Active sessions have two participants, assigned colors, and a live game.
	Active
	// Terminated sessions accept no further transitions. They stay in the
	// registry so attached observers can still query them.
	Terminated
)

// Participant pairs a roster client id with the caller-supplied identity it
// presented. Identities are not required to be unique; color assignment is
// positional.
type Participant struct {
	Client   uint64
	Identity string
}

// Session is one game instance: up to two participants, any number of
// spectators, and the engine handle once the game is live.
type Session struct {
	ID           string
	Phase        Phase
	Participants []Participant
	Spectators   []uint64
	Game         rules.Game

	// firstIsWhite records the coin flip made at activation.
	firstIsWhite bool
}

// activate transitions the session to Active. firstIsWhite is the result of
// a single fair coin flip deciding which join order gets which color.
func (s *Session) activate(game rules.Game, firstIsWhite bool) {
	s.Phase = Active
	s.Game = game
	s.firstIsWhite = firstIsWhite
}

// ColorOf returns the color assigned to the participant at the given join
// position. Only meaningful once the session is active.
func (s *Session) ColorOf(position int) rules.Color {
	if (position == 0) == s.firstIsWhite {
		return rules.White
	}
	return rules.Black
}

// IdentityOf returns the identity holding the given color, or "" if the
// session has not been activated.
func (s *Session) IdentityOf(c rules.Color) string {
	if s.Phase == Forming {
		return ""
	}
	for i, p := range s.Participants {
		if s.ColorOf(i) == c {
			return p.Identity
		}
	}
	return ""
}

// FEN returns the serialized current position, or "" before activation.
func (s *Session) FEN() string {
	if s.Game == nil {
		return ""
	}
	return s.Game.FEN()
}
