package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/campuschat/internal/chat"
	"github.com/Tyrowin/campuschat/internal/dispatch"
	"github.com/Tyrowin/campuschat/internal/session"
)

// Server assembles the hub, the room directory, the dispatcher and the
// HTTP surface.
type Server struct {
	cfg        *Config
	hub        *Hub
	directory  *chat.Directory
	dispatcher *dispatch.Dispatcher
	sessions   *session.Provider
	handler    http.Handler
	http       *http.Server
	log        *slog.Logger
}

// New builds a Server over the given session store. Call Start before
// serving.
func New(cfg *Config, store session.Store, log *slog.Logger) (*Server, error) {
	buildings, err := cfg.BuildingList()
	if err != nil {
		return nil, err
	}

	hub := NewHub(log)
	directory, err := chat.NewDirectory(hub, buildings)
	if err != nil {
		return nil, fmt.Errorf("building directory: %w", err)
	}

	dispatcher := dispatch.New(directory, hub, log)
	sessions := session.NewProvider(store, session.NewTokens(cfg.SessionSecret, cfg.SessionTTL), cfg.SessionTTL, log)
	handler := SetupRoutes(NewHandlers(cfg, hub, dispatcher, sessions, log))

	return &Server{
		cfg:        cfg,
		hub:        hub,
		directory:  directory,
		dispatcher: dispatcher,
		sessions:   sessions,
		handler:    handler,
		http:       CreateServer(cfg.Port, handler),
		log:        log,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Hub returns the connection hub.
func (s *Server) Hub() *Hub { return s.hub }

// Directory returns the room directory.
func (s *Server) Directory() *chat.Directory { return s.directory }

// Start launches the hub loop.
func (s *Server) Start() {
	go s.hub.Run()
	s.log.Info("Hub started", "buildings", len(s.directory.TopLevel()))
}

// ListenAndServe blocks until the HTTP server stops. A graceful shutdown is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	if err := StartServer(s.http, s.log); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener, then disconnects every client.
func (s *Server) Shutdown() error {
	return errors.Join(
		ShutdownServer(s.http, s.cfg.ShutdownTimeout, s.log),
		s.hub.Shutdown(s.cfg.ShutdownTimeout),
	)
}

// OpenStore opens the session store selected by SESSION_STORE.
func OpenStore(ctx context.Context, cfg *Config, log *slog.Logger) (session.Store, error) {
	switch cfg.SessionStore {
	case StoreMemory:
		return session.NewMemoryStore(), nil
	case StoreBadger:
		return session.OpenBadgerStore(cfg.BadgerFilepath, log)
	case StoreRedis:
		return session.OpenRedisStore(ctx, cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}
