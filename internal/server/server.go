// Package server exposes the engines over HTTP/JSON. A single mutex
// serializes every state-mutating action: the engines assume one
// cooperative actor, so requests queue rather than interleave.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/manekigames/merit-engine/internal/draw"
	"github.com/manekigames/merit-engine/internal/economy"
	"github.com/manekigames/merit-engine/internal/session"
	"github.com/manekigames/merit-engine/internal/stats"
	"github.com/manekigames/merit-engine/internal/tap"
)

type Server struct {
	mu    sync.Mutex
	draw  *draw.Engine
	tap   *tap.Engine
	tiers economy.Table
	stats *stats.Service
	state *session.State
	log   *slog.Logger
}

func New(drawEng *draw.Engine, tapEng *tap.Engine, tiers economy.Table, statsSvc *stats.Service, state *session.State, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		draw:  drawEng,
		tap:   tapEng,
		tiers: tiers,
		stats: statsSvc,
		state: state,
		log:   log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/draw", s.handleDraw)
	r.Post("/tap", s.handleTap)
	r.Get("/history", s.handleHistory)
	r.Get("/session", s.handleSession)

	r.Get("/tier", s.handleTier)
	r.Get("/withdrawal", s.handleWithdrawal)
	r.Get("/savings", s.handleSavings)

	r.Get("/stats", s.handleStats)

	return r
}

type errResp struct {
	Err string `json:"err"`
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out, err := s.draw.Draw(r.Context())
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, draw.ErrInsufficientFunds) {
			writeJSON(w, http.StatusPaymentRequired, errResp{Err: err.Error()})
			return
		}
		s.log.Error("draw failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	mode := tap.Free
	switch r.URL.Query().Get("mode") {
	case "", "free":
	case "cost":
		mode = tap.Cost
	default:
		writeJSON(w, http.StatusBadRequest, errResp{Err: "mode must be free or cost"})
		return
	}
	automated := r.URL.Query().Get("automated") == "true"

	s.mu.Lock()
	out, err := s.tap.Tap(mode, automated)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, tap.ErrInsufficientFunds) {
			writeJSON(w, http.StatusPaymentRequired, errResp{Err: err.Error()})
			return
		}
		s.log.Error("tap failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errResp{Err: err.Error()})
		return
	}
	resp := struct {
		Mode string `json:"mode"`
		tap.Outcome
	}{Mode: mode.String(), Outcome: out}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	history := s.draw.History()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cp := *s.state
	cp.Achievements = append([]string(nil), s.state.Achievements...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	balance, ok := parseInt64(r, "balance")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing/invalid param balance"})
		return
	}
	writeJSON(w, http.StatusOK, s.tiers.TierFor(balance))
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	amount, ok := parseFloat(r, "amount")
	if !ok || amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing/invalid param amount"})
		return
	}
	balance, ok := parseInt64(r, "balance")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing/invalid param balance"})
		return
	}
	tier := s.tiers.TierFor(balance)
	resp := struct {
		Tier economy.Tier `json:"tier"`
		economy.Breakdown
	}{Tier: tier, Breakdown: economy.ComputeWithdrawal(amount, tier)}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	amount, ok := parseFloat(r, "amount")
	if !ok || amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing/invalid param amount"})
		return
	}
	balance, ok := parseInt64(r, "balance")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "missing/invalid param balance"})
		return
	}
	current := s.tiers.TierFor(balance)
	next, hasNext := s.tiers.Next(current)
	resp := struct {
		Current economy.Tier  `json:"current"`
		Next    *economy.Tier `json:"next,omitempty"`
		Savings float64       `json:"savings"`
	}{Current: current}
	if hasNext {
		resp.Next = &next
		resp.Savings = economy.UpgradeSavings(amount, current, next)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.stats.CheckDailyReset(s.stats.Load())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
