package relay

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/castlegate/gambit/internal/rules"
	"github.com/castlegate/gambit/internal/session"
	"github.com/castlegate/gambit/internal/settlement"
	"github.com/castlegate/gambit/internal/wire"
)

// command is one decoded frame paired with its origin.
type command struct {
	client *Client
	msg    wire.Message
}

// Dispatcher processes every inbound frame on a single goroutine and is the
// sole mutator of the session registry, so command handlers never run
// concurrently and session state needs no locking. Settlement hand-off is
// fire-and-forget through the sink.
type Dispatcher struct {
	logger   *logrus.Logger
	registry *session.Registry
	roster   *roster
	sink     settlement.Sink
	commands chan command
}

func NewDispatcher(logger *logrus.Logger, registry *session.Registry, roster *roster, sink settlement.Sink) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		registry: registry,
		roster:   roster,
		sink:     sink,
		commands: make(chan command, 256),
	}
}

// Submit hands a decoded frame to the dispatch loop. Called from client read
// pumps.
func (d *Dispatcher) Submit(c *Client, msg wire.Message) {
	d.commands <- command{client: c, msg: msg}
}

// Run consumes commands until ctx is canceled. Call it from its own
// goroutine before accepting connections.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.commands:
			d.handle(cmd.client, cmd.msg)
		}
	}
}

func (d *Dispatcher) handle(c *Client, msg wire.Message) {
	switch msg.Command {
	case wire.CmdStartSession:
		if d.checkArity(c, msg, 2) {
			d.handleStartSession(c, msg.Args)
		}
	case wire.CmdJoinSession:
		if d.checkArity(c, msg, 2) {
			d.handleJoinSession(c, msg.Args)
		}
	case wire.CmdProposeMove:
		if d.checkArity(c, msg, 3) {
			d.handleProposeMove(c, msg.Args)
		}
	case wire.CmdListActive:
		d.handleListActive(c)
	case wire.CmdSessionOver:
		if d.checkArity(c, msg, 1) {
			d.handleSessionOver(msg.Args)
		}
	case wire.CmdObserve:
		if d.checkArity(c, msg, 1) {
			d.handleObserve(c, msg.Args)
		}
	case wire.CmdChat:
		if d.checkArity(c, msg, 6) {
			d.handleChat(msg.Args)
		}
	default:
		d.logger.WithFields(logrus.Fields{
			"client":  c.id,
			"command": msg.Command,
		}).Debug("ignoring unknown command")
	}
}

// checkArity drops frames with missing argument positions. The frame simply
// disappears: no reply, no effect on the loop.
func (d *Dispatcher) checkArity(c *Client, msg wire.Message, want int) bool {
	if len(msg.Args) >= want {
		return true
	}
	d.logger.WithFields(logrus.Fields{
		"client":  c.id,
		"command": msg.Command,
		"args":    len(msg.Args),
	}).Debug("dropping frame with missing arguments")
	return false
}

func (d *Dispatcher) sendError(c *Client, message string) {
	c.trySend(wire.Encode(wire.ReplyError, message))
}

func (d *Dispatcher) handleStartSession(c *Client, args []string) {
	identity, id := args[0], args[1]

	if _, err := d.registry.Create(id, c.id, identity); err != nil {
		d.sendError(c, wire.ErrSessionExists)
		return
	}
	d.logger.WithFields(logrus.Fields{
		"session":  id,
		"identity": identity,
	}).Info("session created")
}

func (d *Dispatcher) handleJoinSession(c *Client, args []string) {
	identity, id := args[0], args[1]

	s, activated, err := d.registry.Join(id, c.id, identity)
	switch {
	case errors.Is(err, session.ErrNotFound):
		d.sendError(c, wire.ErrSessionNotFound)
		return
	case errors.Is(err, session.ErrSessionFull):
		d.sendError(c, wire.ErrSessionFull)
		return
	case err != nil:
		d.sendError(c, wire.ErrSessionNotFound)
		return
	}

	d.logger.WithFields(logrus.Fields{
		"session":  id,
		"identity": identity,
	}).Info("participant joined")

	if !activated {
		return
	}

	// Both participants get their role frame before either gets the start
	// frame. Per-client queues are FIFO, so each sees role then start.
	for i, p := range s.Participants {
		d.send(p.Client, wire.Encode(wire.ReplyRole, s.ColorOf(i).String()))
	}
	started := wire.Encode(wire.ReplyStarted, s.ID)
	for _, p := range s.Participants {
		d.send(p.Client, started)
	}

	d.logger.WithFields(logrus.Fields{
		"session": id,
		"white":   s.IdentityOf(rules.White),
		"black":   s.IdentityOf(rules.Black),
	}).Info("session started")
}

func (d *Dispatcher) handleProposeMove(c *Client, args []string) {
	id, from, to := args[0], args[1], args[2]

	s, ok := d.registry.Lookup(id)
	if !ok || s.Phase != session.Active {
		d.sendError(c, wire.ErrInvalidMove)
		return
	}

	// Square tokens are case-insensitive on the wire but the engine only
	// speaks lower case. The opponent sees the original casing.
	if err := s.Game.Move(strings.ToLower(from), strings.ToLower(to)); err != nil {
		d.sendError(c, wire.ErrInvalidMove)
		return
	}

	d.broadcastParticipants(s, wire.Encode(wire.ReplyOpponentMove, from, to), c.id)
	d.broadcastSpectators(s, wire.Encode(wire.ReplyStream, id, s.FEN()))

	switch s.Game.Status() {
	case rules.Checkmate:
		// The mated side is the one left to move.
		winner := s.IdentityOf(s.Game.Turn().Other())
		d.registry.MarkOver(id)
		d.sink.RecordWin(id, winner)
		d.logger.WithFields(logrus.Fields{
			"session": id,
			"winner":  winner,
		}).Info("session ended in checkmate")
	case rules.Draw:
		d.registry.MarkOver(id)
		d.sink.ReturnStakes(id)
		d.logger.WithField("session", id).Info("session ended in a draw")
	}
}

func (d *Dispatcher) handleListActive(c *Client) {
	entries := d.registry.ListActive()
	if len(entries) == 0 {
		c.trySend(wire.Encode(wire.ReplyNoActive))
		return
	}
	for _, e := range entries {
		c.trySend(wire.Encode(wire.ReplyActive, e.ID, e.First, e.Second))
	}
}

func (d *Dispatcher) handleSessionOver(args []string) {
	d.registry.MarkOver(args[0])
}

func (d *Dispatcher) handleObserve(c *Client, args []string) {
	id := args[0]

	s, err := d.registry.AttachSpectator(id, c.id)
	if err != nil {
		d.sendError(c, wire.ErrSessionNotFound)
		return
	}
	c.trySend(wire.Encode(wire.ReplySnapshot,
		s.ID, s.FEN(), s.IdentityOf(rules.White), s.IdentityOf(rules.Black)))
}

// handleChat relays a chat frame to everyone in the session. There is no
// membership check, and an unknown session id is a silent no-op.
func (d *Dispatcher) handleChat(args []string) {
	s, ok := d.registry.Lookup(args[0])
	if !ok {
		return
	}
	payload := wire.Encode(wire.ReplyChat, args...)
	d.broadcastParticipants(s, payload, 0)
	d.broadcastSpectators(s, payload)
}
