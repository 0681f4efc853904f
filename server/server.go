// Package server exposes the storage engine and aggregation view over a
// JSON API consumed by the UI layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/ewiq/leatly/pkg/domain"
)

// Store interface for server operations.
type Store interface {
	SaveFeed(ctx context.Context, feed *domain.Feed, sourceURL string) error
	GetAllItems(ctx context.Context) ([]domain.StoredItem, error)
	GetAllChannels(ctx context.Context) ([]domain.StoredChannel, error)
	GetAllCollections(ctx context.Context) ([]domain.Collection, error)
	DeleteChannel(ctx context.Context, channelID string) error
	UpdateItem(ctx context.Context, id string, upd domain.ItemUpdate) error
	UpdateChannelSettings(ctx context.Context, channelID string, settings domain.ChannelSettings) error
	CreateCollection(ctx context.Context, name string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	ToggleChannelCollection(ctx context.Context, channelID, collectionID string, add bool) error
}

// Fetcher retrieves raw feed bytes for the subscribe flow.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config holds server configuration.
type Config struct {
	Listen  string
	Timeout time.Duration
	Version string
	Debug   bool
}

// Server represents the HTTP server instance.
type Server struct {
	config  Config
	store   Store
	fetcher Fetcher

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance.
func New(cfg Config, store Store, fetcher Fetcher) *Server {
	s := &Server{
		config:  cfg,
		store:   store,
		fetcher: fetcher,
		router:  routegroup.New(http.NewServeMux()),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	lgr.Printf("[INFO] starting server on %s", s.config.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  s.config.Timeout,
		WriteTimeout: s.config.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// setupMiddleware configures standard middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("leatly", "ewiq", s.config.Version))
	s.router.Use(rest.Ping)

	if s.config.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes.
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("POST /subscribe", s.subscribeHandler)
		r.HandleFunc("GET /feed", s.feedHandler)
		r.HandleFunc("PATCH /items/{id}", s.updateItemHandler)
		r.HandleFunc("PATCH /channels", s.updateChannelHandler)
		r.HandleFunc("DELETE /channels", s.deleteChannelHandler)
		r.HandleFunc("POST /channels/collections", s.toggleChannelCollectionHandler)
		r.HandleFunc("POST /collections", s.createCollectionHandler)
		r.HandleFunc("DELETE /collections/{id}", s.deleteCollectionHandler)
	})
}

// statusHandler returns server status.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.config.Version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, http.StatusOK, status)
}

// renderJSON sends a JSON response.
func renderJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends an error response in the {success:false, error}
// envelope the UI expects.
func renderError(w http.ResponseWriter, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, code, map[string]interface{}{"success": false, "error": errMsg})
}
