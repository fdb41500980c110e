package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/castlegate/gambit/internal/rules"
)

// fakeGame is a scripted rules engine so these tests do not depend on actual
// chess legality.
type fakeGame struct {
	fen    string
	status rules.Status
	turn   rules.Color
}

func (g *fakeGame) Move(from, to string) error { return nil }
func (g *fakeGame) FEN() string                { return g.fen }
func (g *fakeGame) Status() rules.Status       { return g.status }
func (g *fakeGame) Turn() rules.Color          { return g.turn }

type fakeOracle struct {
	created int
}

func (o *fakeOracle) NewGame() rules.Game {
	o.created++
	return &fakeGame{fen: "fake-fen"}
}

func headsCoin() bool { return true }

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	s, err := r.Create("G1", 1, "alice")
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if s.Phase != Forming {
		t.Errorf("new session phase = %v, want Forming", s.Phase)
	}
	if len(s.Participants) != 1 || s.Participants[0].Identity != "alice" {
		t.Errorf("new session participants = %+v", s.Participants)
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	if _, err := r.Create("G2", 1, "alice"); err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if _, err := r.Create("G2", 2, "mallory"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create() error = %v, want ErrAlreadyExists", err)
	}

	// The losing create must not have mutated the existing session.
	s, _ := r.Lookup("G2")
	if len(s.Participants) != 1 || s.Participants[0].Identity != "alice" {
		t.Errorf("session mutated by failed create: %+v", s.Participants)
	}
}

func TestRegistry_UnknownID(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup() on unknown id reported present")
	}
	if _, _, err := r.Join("nope", 1, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Join() on unknown id error = %v, want ErrNotFound", err)
	}
	if _, err := r.AttachSpectator("nope", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("AttachSpectator() on unknown id error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_JoinActivates(t *testing.T) {
	oracle := &fakeOracle{}
	r := NewRegistry(oracle, headsCoin)

	if _, err := r.Create("G1", 1, "alice"); err != nil {
		t.Fatal(err)
	}
	s, activated, err := r.Join("G1", 2, "bob")
	if err != nil {
		t.Fatalf("Join() returned error: %v", err)
	}
	if !activated {
		t.Fatal("second join did not activate the session")
	}
	if s.Phase != Active {
		t.Errorf("phase after activation = %v, want Active", s.Phase)
	}
	if oracle.created != 1 {
		t.Errorf("oracle created %d games, want 1", oracle.created)
	}

	// With a heads coin the first joiner is white, and exactly one
	// participant holds each color.
	if s.ColorOf(0) != rules.White || s.ColorOf(1) != rules.Black {
		t.Errorf("colors = %v/%v, want white/black", s.ColorOf(0), s.ColorOf(1))
	}
	if s.IdentityOf(rules.White) != "alice" || s.IdentityOf(rules.Black) != "bob" {
		t.Errorf("identities = %q/%q", s.IdentityOf(rules.White), s.IdentityOf(rules.Black))
	}
}

func TestRegistry_JoinTailsCoin(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, func() bool { return false })

	_, _ = r.Create("G1", 1, "alice")
	s, _, err := r.Join("G1", 2, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if s.IdentityOf(rules.White) != "bob" || s.IdentityOf(rules.Black) != "alice" {
		t.Errorf("tails flip assigned %q/%q, want bob/alice",
			s.IdentityOf(rules.White), s.IdentityOf(rules.Black))
	}
}

func TestRegistry_JoinFull(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	_, _ = r.Create("G1", 1, "alice")
	_, _, _ = r.Join("G1", 2, "bob")

	_, _, err := r.Join("G1", 3, "carol")
	if !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third Join() error = %v, want ErrSessionFull", err)
	}

	s, _ := r.Lookup("G1")
	if len(s.Participants) != 2 {
		t.Errorf("failed join mutated participants: %+v", s.Participants)
	}
}

func TestRegistry_DuplicateIdentitiesPermitted(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	_, _ = r.Create("G1", 1, "anon")
	if _, _, err := r.Join("G1", 2, "anon"); err != nil {
		t.Fatalf("Join() with duplicate identity returned error: %v", err)
	}
}

func TestRegistry_ListActive(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	if got := r.ListActive(); len(got) != 0 {
		t.Fatalf("ListActive() on empty registry = %v", got)
	}

	// A forming session is not active.
	_, _ = r.Create("G1", 1, "alice")
	if got := r.ListActive(); len(got) != 0 {
		t.Fatalf("ListActive() with only forming sessions = %v", got)
	}

	_, _, _ = r.Join("G1", 2, "bob")
	_, _ = r.Create("G2", 3, "carol")
	_, _, _ = r.Join("G2", 4, "dave")

	want := []ActiveEntry{
		{ID: "G1", First: "alice", Second: "bob"},
		{ID: "G2", First: "carol", Second: "dave"},
	}
	if diff := cmp.Diff(want, r.ListActive()); diff != "" {
		t.Errorf("ListActive() mismatch; diff:\n%s", diff)
	}
}

func TestRegistry_MarkOver(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	_, _ = r.Create("G1", 1, "alice")
	_, _, _ = r.Join("G1", 2, "bob")

	r.MarkOver("G1")
	if got := r.ListActive(); len(got) != 0 {
		t.Errorf("ListActive() after MarkOver = %v", got)
	}

	s, ok := r.Lookup("G1")
	if !ok {
		t.Fatal("MarkOver removed the session from the registry map")
	}
	if s.Phase != Terminated {
		t.Errorf("phase after MarkOver = %v, want Terminated", s.Phase)
	}

	// Idempotent, including for ids never made active.
	r.MarkOver("G1")
	r.MarkOver("never-existed")
}

func TestRegistry_JoinTerminatedSession(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	// A session ended while still forming must not come back to life.
	_, _ = r.Create("G1", 1, "alice")
	r.MarkOver("G1")

	if _, _, err := r.Join("G1", 2, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Join() on terminated session error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_AttachSpectator(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)

	_, _ = r.Create("G1", 1, "alice")
	_, _, _ = r.Join("G1", 2, "bob")

	s, err := r.AttachSpectator("G1", 9)
	if err != nil {
		t.Fatalf("AttachSpectator() returned error: %v", err)
	}
	if len(s.Spectators) != 1 || s.Spectators[0] != 9 {
		t.Errorf("spectators = %v, want [9]", s.Spectators)
	}
	if s.FEN() != "fake-fen" {
		t.Errorf("snapshot FEN = %q", s.FEN())
	}
}

func TestSession_FENBeforeActivation(t *testing.T) {
	r := NewRegistry(&fakeOracle{}, headsCoin)
	s, _ := r.Create("G1", 1, "alice")

	if s.FEN() != "" {
		t.Errorf("forming session FEN = %q, want empty", s.FEN())
	}
	if s.IdentityOf(rules.White) != "" {
		t.Errorf("forming session has a white identity: %q", s.IdentityOf(rules.White))
	}
}
