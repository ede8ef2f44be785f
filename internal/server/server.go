// Package server exposes the HTTP API: registration, puzzle marketplace,
// daily puzzles, submissions and rank reads. All puzzle semantics live in
// the service layer; handlers only decode, delegate and map errors.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"kibi-puzzle/internal/config"
	"kibi-puzzle/internal/pkg/db"
	"kibi-puzzle/internal/service"
)

// Server bundles the HTTP handler dependencies.
type Server struct {
	accounts *service.AccountService
	puzzles  *service.PuzzleService
	daily    *service.DailyService
	submit   *service.SubmitService
	pool     *db.Pool
}

// New creates a Server instance.
func New(
	accounts *service.AccountService,
	puzzles *service.PuzzleService,
	daily *service.DailyService,
	submit *service.SubmitService,
	pool *db.Pool,
) *Server {
	return &Server{
		accounts: accounts,
		puzzles:  puzzles,
		daily:    daily,
		submit:   submit,
		pool:     pool,
	}
}

// Handler builds the routed, CORS-wrapped, rate-limited HTTP handler.
func (s *Server) Handler(cfg *config.ServerConfig) http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{address}", s.handleGetUser).Methods(http.MethodGet)

	api.HandleFunc("/puzzles", s.handleCreatePuzzle).Methods(http.MethodPost)
	api.HandleFunc("/puzzles", s.handleListPuzzles).Methods(http.MethodGet)
	api.HandleFunc("/puzzles/unsolved", s.handleListUnsolved).Methods(http.MethodGet)
	api.HandleFunc("/puzzles/{puzzleId}", s.handleGetPuzzle).Methods(http.MethodGet)

	api.HandleFunc("/daily-puzzle", s.handleDailyPuzzle).Methods(http.MethodGet)
	api.HandleFunc("/daily-puzzle/history", s.handleDailyHistory).Methods(http.MethodGet)

	api.HandleFunc("/rank", s.handleRank).Methods(http.MethodGet)

	// Submission endpoints carry the per-client rate limit.
	limited := api.NewRoute().Subrouter()
	limited.Use(rateLimitMiddleware(cfg.SubmitRPS, cfg.SubmitBurst))
	limited.HandleFunc("/puzzles/{puzzleId}/submit", s.handleSubmit).Methods(http.MethodPost)
	limited.HandleFunc("/daily-puzzle/submit", s.handleSubmitDaily).Methods(http.MethodPost)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	router.Use(loggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(router)
}

// NewHTTPServer wraps the handler in an http.Server with sane timeouts.
func (s *Server) NewHTTPServer(cfg *config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
