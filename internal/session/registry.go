package session

import (
	"errors"
	"math/rand"

	"github.com/castlegate/gambit/internal/rules"
)

var (
	ErrAlreadyExists = errors.New("session already exists")
	ErrNotFound      = errors.New("session not found")
	ErrSessionFull   = errors.New("session full")
)

// ActiveEntry is one row of a ListActive snapshot.
type ActiveEntry struct {
	ID     string
	First  string
	Second string
}

// Registry is the process-wide mapping from session id to Session, plus the
// ordered list of ids considered in play. It exclusively owns all Session
// objects. Sessions are never deleted from the map once created; MarkOver
// only retires the id from the active list.
type Registry struct {
	oracle   rules.Oracle
	coin     func() bool
	sessions map[string]*Session
	active   []string
}

// NewRegistry builds an empty registry. coin decides the activation color
// flip and may be nil, in which case a fair random flip is used. Tests pass
// a deterministic coin.
func NewRegistry(oracle rules.Oracle, coin func() bool) *Registry {
	if coin == nil {
		coin = func() bool { return rand.Intn(2) == 0 }
	}
	return &Registry{
		oracle:   oracle,
		coin:     coin,
		sessions: make(map[string]*Session),
	}
}

// Create makes a new forming session with a single participant. It fails
// with ErrAlreadyExists if the id is taken, leaving the existing session
// untouched.
func (r *Registry) Create(id string, client uint64, identity string) (*Session, error) {
	if _, ok := r.sessions[id]; ok {
		return nil, ErrAlreadyExists
	}
	s := &Session{
		ID:           id,
		Participants: []Participant{{Client: client, Identity: identity}},
	}
	r.sessions[id] = s
	return s, nil
}

// Join appends a participant to an existing session. Reaching two
// participants activates the session as a side effect: the color flip is
// made, the engine handle is created, and the id is appended to the active
// list. The returned bool reports whether this call activated the session.
func (r *Registry) Join(id string, client uint64, identity string) (*Session, bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Phase == Terminated {
		return nil, false, ErrNotFound
	}
	if len(s.Participants) >= 2 {
		return nil, false, ErrSessionFull
	}

	s.Participants = append(s.Participants, Participant{Client: client, Identity: identity})
	if len(s.Participants) < 2 {
		return s, false, nil
	}

	s.activate(r.oracle.NewGame(), r.coin())
	r.active = append(r.active, id)
	return s, true, nil
}

// Lookup returns the session for id, if present.
func (r *Registry) Lookup(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// ListActive returns a snapshot of the in-play sessions in activation order.
// An empty snapshot is a valid result distinct from any error.
func (r *Registry) ListActive() []ActiveEntry {
	entries := make([]ActiveEntry, 0, len(r.active))
	for _, id := range r.active {
		s, ok := r.sessions[id]
		if !ok || len(s.Participants) < 2 {
			continue
		}
		entries = append(entries, ActiveEntry{
			ID:     id,
			First:  s.Participants[0].Identity,
			Second: s.Participants[1].Identity,
		})
	}
	return entries
}

// MarkOver terminates the session and retires its id from the active list.
// It is idempotent: marking an unknown or already-retired id is a no-op.
func (r *Registry) MarkOver(id string) {
	if s, ok := r.sessions[id]; ok {
		s.Phase = Terminated
	}
	for i, activeID := range r.active {
		if activeID == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return
		}
	}
}

// AttachSpectator registers a client to receive future broadcasts for the
// session and returns the session for the caller's initial snapshot.
func (r *Registry) AttachSpectator(id string, client uint64) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.Spectators = append(s.Spectators, client)
	return s, nil
}
