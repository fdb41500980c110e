package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/sirupsen/logrus"

	"github.com/castlegate/gambit/internal/core"
	"github.com/castlegate/gambit/internal/relay"
	"github.com/castlegate/gambit/internal/rules"
	"github.com/castlegate/gambit/internal/session"
	"github.com/castlegate/gambit/internal/settlement"
)

// Controller is the main entrypoint for gambit. It's responsible for
// initializing the shared resources (logging, the ledger database, the
// settlement worker) and running the relay server under one context.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
}

func (c *Controller) Start(ctx context.Context) error {
	var err error
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	if c.Config.Debugging.PprofEnabled {
		c.startPprofServer()
	}

	db, err := settlement.Open(
		c.Config.Database.Engine,
		c.Config.DatabaseURL(),
		c.Config.Debugging.DatabaseLoggingEnabled,
	)
	if err != nil {
		return fmt.Errorf("error connecting to ledger database: %w", err)
	}
	ledger, err := settlement.NewLedger(db)
	if err != nil {
		return fmt.Errorf("error initializing ledger: %w", err)
	}

	worker := settlement.NewWorker(ledger, c.logger, c.Config.Settlement.QueueSize)
	go worker.Run(ctx)

	registry := session.NewRegistry(rules.NewChessOracle(), nil)
	server := relay.NewServer(c.Config, c.logger, registry, worker)
	return server.Start(ctx)
}

func (c *Controller) startPprofServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	addr := fmt.Sprintf("localhost:%d", c.Config.Debugging.PprofPort)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			c.logger.Warnf("pprof server exited: %v", err)
		}
	}()
	c.logger.Infof("started pprof server on %s", addr)
}
