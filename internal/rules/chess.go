package rules

import (
	"github.com/notnil/chess"
)

// ChessOracle is the default Oracle implementation, backed by notnil/chess.
type ChessOracle struct{}

func NewChessOracle() *ChessOracle {
	return &ChessOracle{}
}

func (o *ChessOracle) NewGame() Game {
	return &chessGame{game: chess.NewGame()}
}

type chessGame struct {
	game *chess.Game
}

func (g *chessGame) Move(from, to string) error {
	// UCI notation is the coordinate pair, so decoding doubles as legality
	// checking against the current position.
	move, err := chess.UCINotation{}.Decode(g.game.Position(), from+to)
	if err != nil {
		return err
	}
	return g.game.Move(move)
}

func (g *chessGame) FEN() string {
	return g.game.Position().String()
}

func (g *chessGame) Status() Status {
	switch g.game.Outcome() {
	case chess.NoOutcome:
		return InPlay
	case chess.Draw:
		return Draw
	default:
		// The relay never resigns a game on the engine, so a decisive
		// outcome here is always a mate.
		return Checkmate
	}
}

func (g *chessGame) Turn() Color {
	if g.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}
