package rules

import (
	"strings"
	"testing"
)

func TestChessGame_LegalMove(t *testing.T) {
	g := NewChessOracle().NewGame()

	if err := g.Move("e2", "e4"); err != nil {
		t.Fatalf("Move(e2, e4) returned error: %v", err)
	}
	if !strings.Contains(g.FEN(), "4P3") {
		t.Errorf("FEN after e2e4 missing the pushed pawn: %s", g.FEN())
	}
	if g.Turn() != Black {
		t.Errorf("Turn() after one move = %v, want Black", g.Turn())
	}
	if g.Status() != InPlay {
		t.Errorf("Status() after one move = %v, want InPlay", g.Status())
	}
}

func TestChessGame_IllegalMove(t *testing.T) {
	g := NewChessOracle().NewGame()

	if err := g.Move("e2", "e5"); err == nil {
		t.Fatal("Move(e2, e5) from the initial position should be rejected")
	}

	// The position must be unchanged after a rejected move.
	if g.Turn() != White {
		t.Errorf("Turn() after rejected move = %v, want White", g.Turn())
	}
}

func TestChessGame_UppercaseSquaresRejected(t *testing.T) {
	// The engine only speaks lower-case coordinate notation; normalizing
	// case is the dispatcher's job.
	g := NewChessOracle().NewGame()
	if err := g.Move("E2", "E4"); err == nil {
		t.Fatal("Move(E2, E4) should be rejected without case normalization")
	}
}

func TestChessGame_FoolsMate(t *testing.T) {
	g := NewChessOracle().NewGame()

	moves := [][2]string{
		{"f2", "f3"},
		{"e7", "e5"},
		{"g2", "g4"},
		{"d8", "h4"},
	}
	for _, m := range moves {
		if err := g.Move(m[0], m[1]); err != nil {
			t.Fatalf("Move(%s, %s) returned error: %v", m[0], m[1], err)
		}
	}

	if g.Status() != Checkmate {
		t.Fatalf("Status() after fool's mate = %v, want Checkmate", g.Status())
	}
	// White is mated and to move, so the winner is the other side.
	if g.Turn() != White {
		t.Errorf("Turn() in the mated position = %v, want White", g.Turn())
	}
	if g.Turn().Other() != Black {
		t.Errorf("winner = %v, want Black", g.Turn().Other())
	}
}

func TestChessGame_Stalemate(t *testing.T) {
	g := NewChessOracle().NewGame()

	// Loyd's ten-move stalemate. Black still has every piece but no legal
	// move after 10.Qe6.
	moves := [][2]string{
		{"e2", "e3"}, {"a7", "a5"},
		{"d1", "h5"}, {"a8", "a6"},
		{"h5", "a5"}, {"h7", "h5"},
		{"a5", "c7"}, {"a6", "h6"},
		{"h2", "h4"}, {"f7", "f6"},
		{"c7", "d7"}, {"e8", "f7"},
		{"d7", "b7"}, {"d8", "d3"},
		{"b7", "b8"}, {"d3", "h7"},
		{"b8", "c8"}, {"f7", "g6"},
		{"c8", "e6"},
	}
	for _, m := range moves {
		if err := g.Move(m[0], m[1]); err != nil {
			t.Fatalf("Move(%s, %s) returned error: %v", m[0], m[1], err)
		}
	}

	if g.Status() != Draw {
		t.Fatalf("Status() in the stalemated position = %v, want Draw", g.Status())
	}
	if g.Turn() != Black {
		t.Errorf("Turn() in the stalemated position = %v, want Black", g.Turn())
	}
}

func TestColor(t *testing.T) {
	if White.String() != "white" || Black.String() != "black" {
		t.Errorf("Color.String() = %q/%q", White.String(), Black.String())
	}
	if White.Other() != Black || Black.Other() != White {
		t.Error("Color.Other() does not invert")
	}
}
