package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"catan-server/internal/boardgame/engine"
	"catan-server/internal/storage"
)

// Server holds every piece of shared gateway state: the live game
// actors and lobbies, the socket routing table, and (optionally) a
// Postgres-backed store for finished games.
type Server struct {
	port        int
	frontendURL string

	connectionManager *ConnectionManager
	lobbyManager      *LobbyManager
	sessionManager    *SessionManager
	rateLimiter       *RateLimiter
	health            *ConnectionHealth

	store *storage.Store
}

// NewServer wires up the gateway and returns both the Server (for
// lifecycle control, e.g. graceful shutdown) and the http.Server ready
// to serve. DATABASE_URL is optional: without it the server runs with
// persistence disabled, which is fine for local development.
func NewServer() (*Server, *http.Server) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "*"
	}

	var store *storage.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := storage.Open(ctx, dbURL)
		if err != nil {
			log.Printf("storage disabled: %v", err)
		} else {
			store = s
		}
	}

	s := &Server{
		port:              port,
		frontendURL:       frontendURL,
		connectionManager: NewConnectionManager(),
		lobbyManager:      NewLobbyManager(),
		sessionManager:    NewSessionManager(),
		rateLimiter:       NewRateLimiter(20, time.Second),
		health:            NewConnectionHealth(),
		store:             store,
	}

	go s.cleanupTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

// endGame persists a finished game's terminal state, if storage is
// configured, and frees its actor.
func (s *Server) endGame(code string, final engine.GameState) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.SaveFinished(ctx, final); err != nil {
			log.Printf("failed to persist finished game %s: %v", code, err)
		}
	}
	s.sessionManager.EndGame(code)
}

// cleanupTask periodically deletes old finished games from storage,
// bounding table growth the way a long-lived deployment needs.
func (s *Server) cleanupTask() {
	if s.store == nil {
		return
	}
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		deleted, err := s.store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		cancel()
		if err != nil {
			log.Printf("cleanup task failed: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("cleanup task: deleted %d old finished games", deleted)
		}
	}
}

// Shutdown closes the storage connection. Called from main's graceful
// shutdown path before the HTTP server stops accepting connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.store != nil {
		s.store.Close()
	}
	return nil
}
