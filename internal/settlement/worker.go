package settlement

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Sink receives terminal outcomes from the dispatcher. Both methods must
// return without blocking; delivery is fire-and-forget.
type Sink interface {
	// RecordWin settles the session's stakes in favor of winner.
	RecordWin(sessionID, winner string)

	// ReturnStakes gives the stakes back to both participants.
	ReturnStakes(sessionID string)
}

const settledTTL = time.Hour

type job struct {
	sessionID string
	kind      Kind
	winner    string
}

// Worker is the default Sink. Outcomes are queued on a bounded channel and
// drained by a single goroutine into the ledger. A session settles at most
// once; repeated outcomes for the same id are dropped.
type Worker struct {
	ledger  *Ledger
	logger  *logrus.Logger
	queue   chan job
	settled *gocache.Cache
}

func NewWorker(ledger *Ledger, logger *logrus.Logger, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		ledger:  ledger,
		logger:  logger,
		queue:   make(chan job, queueSize),
		settled: gocache.New(settledTTL, 10*time.Minute),
	}
}

// Run drains the queue until ctx is canceled. Call it from its own goroutine.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.queue:
			w.process(j)
		}
	}
}

func (w *Worker) RecordWin(sessionID, winner string) {
	w.enqueue(job{sessionID: sessionID, kind: KindWin, winner: winner})
}

func (w *Worker) ReturnStakes(sessionID string) {
	w.enqueue(job{sessionID: sessionID, kind: KindRefund})
}

func (w *Worker) enqueue(j job) {
	if _, dup := w.settled.Get(j.sessionID); dup {
		w.logger.WithField("session", j.sessionID).Debug("session already settled, dropping outcome")
		return
	}
	select {
	case w.queue <- j:
		// Marked settled only once the outcome is actually queued, so a
		// drop below can still be re-delivered later.
		w.settled.Set(j.sessionID, true, gocache.DefaultExpiration)
	default:
		// The dispatch loop must never block on settlement, so a full
		// queue loses the outcome. Operators find out here.
		w.logger.WithFields(logrus.Fields{
			"session": j.sessionID,
			"kind":    j.kind,
		}).Error("settlement queue full, dropping outcome")
	}
}

func (w *Worker) process(j job) {
	entry := &Entry{
		SessionID: j.sessionID,
		Kind:      string(j.kind),
		Winner:    j.winner,
	}
	if err := w.ledger.Record(entry); err != nil {
		w.logger.WithFields(logrus.Fields{
			"session": j.sessionID,
			"kind":    j.kind,
			"winner":  j.winner,
		}).Errorf("failed to record settlement: %v", err)
		return
	}
	w.logger.WithFields(logrus.Fields{
		"session": j.sessionID,
		"kind":    j.kind,
		"winner":  j.winner,
	}).Info("settlement recorded")
}
