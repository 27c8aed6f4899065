package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"arrow-arena/game"
	"arrow-arena/results"

	log "github.com/sirupsen/logrus"
)

const maxRecentMatches = 50

type Server struct {
	arena   *game.Arena
	results *results.Store
	static  string
}

func New(arena *game.Arena, store *results.Store, staticDir string) *Server {
	return &Server{arena: arena, results: store, static: staticDir}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.websocketHandler)
	mux.HandleFunc("GET /lobby", s.lobbyHandler)
	mux.HandleFunc("GET /metrics", s.metricsHandler)
	mux.HandleFunc("GET /leaderboard", s.leaderboardHandler)
	mux.HandleFunc("GET /matches", s.matchesHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", http.FileServer(http.Dir(s.static)))
	return mux
}

// HTTPServer wraps the handler with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	game.ServeWebSocket(s.arena, w, r)
}

func (s *Server) lobbyHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.arena.Lobby()
	if !ok {
		http.Error(w, "arena stopped", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snapshot)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.arena.Metrics().Snapshot())
}

func (s *Server) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	standings, err := s.results.Leaderboard(r.Context())
	if err != nil {
		log.WithError(err).Warn("Failed to read leaderboard")
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, standings)
}

func (s *Server) matchesHandler(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(parsed, maxRecentMatches)
	}

	records, err := s.results.RecentMatches(r.Context(), n)
	if err != nil {
		log.WithError(err).Warn("Failed to read match history")
		http.Error(w, "match history unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to write response")
	}
}
