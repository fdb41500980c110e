// Package relay implements the network-facing half of the server: the
// websocket frontend, per-client read/write pumps, and the single-threaded
// command dispatcher that owns all session state.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/castlegate/gambit/internal/core"
	"github.com/castlegate/gambit/internal/session"
	"github.com/castlegate/gambit/internal/settlement"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Identity is caller-supplied and unauthenticated, so origin checking
	// buys nothing here. TLS termination belongs to the deployment layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts websocket connections and feeds their frames to the
// dispatcher.
type Server struct {
	config     *core.Config
	logger     *logrus.Logger
	roster     *roster
	dispatcher *Dispatcher
}

func NewServer(config *core.Config, logger *logrus.Logger, registry *session.Registry, sink settlement.Sink) *Server {
	r := newRoster()
	return &Server{
		config:     config,
		logger:     logger,
		roster:     r,
		dispatcher: NewDispatcher(logger, registry, r, sink),
	}
}

// Handler returns the HTTP handler exposing the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// Start runs the dispatcher and blocks serving connections until ctx is
// canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	go s.dispatcher.Run(ctx)

	httpServer := &http.Server{
		Addr:    s.config.RelayAddress(),
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()
	s.logger.Infof("waiting for relay connections on %s", httpServer.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		// Shutdown does not touch hijacked connections, so the websockets
		// are told to go away explicitly.
		s.roster.each(func(c *Client) { c.beginClose() })
		return ctx.Err()
	case err := <-errChan:
		return fmt.Errorf("relay listener failed: %w", err)
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	if max := s.config.RelayServer.MaxConnections; max > 0 && s.roster.size() >= max {
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := newClient(conn, s.config.RelayServer.SendQueueSize, s.logger)
	s.roster.add(client)
	s.logger.WithField("client", client.id).Infof("accepted connection from %s", conn.RemoteAddr())

	go client.writePump()
	go client.readPump(s.dispatcher, s.roster)
}
