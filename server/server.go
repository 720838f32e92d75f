// Package server exposes the journal and studio over HTTP for the
// desktop UI: entry CRUD, generation job control, settings, and a
// WebSocket feed of job status updates.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/studio"
	"github.com/toonana/toonana/studio/provider"
)

// MaxClients bounds concurrent WebSocket connections.
const MaxClients = 16

// Server is the HTTP and WebSocket surface over the journal store and
// the studio service.
type Server struct {
	cfg        *config.Config
	configPath string
	db         *sql.DB
	store      *journal.Store
	studio     *studio.Service
	text       provider.TextGenerator

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan studio.JobStatus

	mux        *http.ServeMux
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer wires the server. Job status updates flow from the studio
// registry into the WebSocket hub.
func NewServer(cfg *config.Config, db *sql.DB, store *journal.Store, studioSvc *studio.Service, text provider.TextGenerator) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		configPath: config.DefaultConfigPath(),
		db:         db,
		store:      store,
		studio:     studioSvc,
		text:       text,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan studio.JobStatus, 64),
		mux:        http.NewServeMux(),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.setupRoutes()

	studioSvc.Registry().Watch(func(status studio.JobStatus) {
		select {
		case s.broadcast <- status:
		case <-s.ctx.Done():
		default:
			logger.Warnw("job status broadcast queue full, dropping update",
				logger.FieldJobID, status.JobID)
		}
	})

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the hub and the HTTP listener. Blocks until the listener
// exits.
func (s *Server) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runHub()
	}()

	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infow("server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Shutdown stops the listener, the hub, and all client connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	s.cancel()

	s.mu.Lock()
	for client := range s.clients {
		client.close()
		delete(s.clients, client)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "server shutdown")
	}
	return httpErr
}

// runHub owns the client set and fans job status updates out to every
// connected client.
func (s *Server) runHub() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case client := <-s.register:
			s.handleRegister(client)
		case client := <-s.unregister:
			s.handleUnregister(client)
		case status := <-s.broadcast:
			s.handleBroadcast(status)
		}
	}
}

func (s *Server) handleRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		logger.Warnw("max clients reached, rejecting connection",
			"client_id", client.id)
		client.close()
		return
	}
	s.clients[client] = true
	total := len(s.clients)
	s.mu.Unlock()

	logger.Infow("client connected", "client_id", client.id, logger.FieldCount, total)
}

func (s *Server) handleUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	total := len(s.clients)
	s.mu.Unlock()

	client.close()
	logger.Infow("client disconnected", "client_id", client.id, logger.FieldCount, total)
}

func (s *Server) handleBroadcast(status studio.JobStatus) {
	msg := newJobStatusMessage(status)

	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msg:
		default:
			// Slow consumer; drop it rather than stalling the hub.
			go func(c *Client) { s.unregister <- c }(client)
		}
	}
}
