// Package rules defines the boundary between the relay and the rules engine
// that validates moves and detects terminal positions. The relay treats the
// engine as opaque: it proposes transitions and reads back the serialized
// position and terminal status.
package rules

// Color identifies one of the two playing roles.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Status is the terminal state of a game as reported by the engine.
type Status int

const (
	// InPlay means the game has no terminal outcome yet.
	InPlay Status = iota
	// Checkmate means the side to move has been mated.
	Checkmate
	// Draw covers stalemate, repetition, insufficient material and the
	// fifty-move rule. The relay treats all of them the same way.
	Draw
)

// Game is a live engine handle for one session. Implementations are not
// required to be safe for concurrent use; the dispatcher serializes access.
type Game interface {
	// Move applies a transition between two squares in coordinate notation
	// (e.g. "e2", "e4"). It returns an error if the move is not legal in the
	// current position, leaving the position unchanged.
	Move(from, to string) error

	// FEN returns the serialized current position.
	FEN() string

	// Status reports whether the position is terminal.
	Status() Status

	// Turn returns the side to move.
	Turn() Color
}

// Oracle creates engine handles for new sessions.
type Oracle interface {
	NewGame() Game
}
