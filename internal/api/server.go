// Package api exposes the table service over HTTP JSON. Routing is
// deliberately hand-rolled: the surface is small enough that a mux
// dependency would outweigh it.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/courtside/holdem-engine/internal/domain"
	"github.com/courtside/holdem-engine/internal/table"
)

type Server struct {
	svc *table.Service
	log *slog.Logger
}

func NewServer(svc *table.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

type createGameRequest struct {
	Players []string `json:"players"`
	Preview bool     `json:"preview"`
}

type actionRequest struct {
	PlayerID string            `json:"player_id"`
	Kind     domain.ActionKind `json:"kind"`
	Amount   int64             `json:"amount,omitempty"`
}

type revealRequest struct {
	PlayerID string `json:"player_id"`
}

type sweepResponse struct {
	Applied int `json:"applied"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "healthz" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case len(parts) == 1 && parts[0] == "sweep" && r.Method == http.MethodPost:
		s.handleSweep(w, r)
	case len(parts) == 1 && parts[0] == "games" && r.Method == http.MethodPost:
		s.handleCreateGame(w, r)
	case len(parts) == 3 && parts[0] == "games":
		s.handleGameRoute(w, r, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "hands":
		s.handleHandRoute(w, r, parts[1], parts[2])
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	game, err := s.svc.CreateGame(r.Context(), req.Players, req.Preview)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game.View(nil, ""))
}

func (s *Server) handleGameRoute(w http.ResponseWriter, r *http.Request, gameID, action string) {
	ctx := r.Context()
	switch {
	case action == "start" && r.Method == http.MethodPost:
		game, err := s.svc.StartGame(ctx, gameID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game.View(nil, ""))

	case action == "deal" && r.Method == http.MethodPost:
		hand, err := s.svc.DealHand(ctx, gameID)
		if err != nil {
			s.writeDealError(w, hand, err)
			return
		}
		writeJSON(w, http.StatusOK, hand.View(""))

	case action == "cancel" && r.Method == http.MethodPost:
		game, err := s.svc.CancelGame(ctx, gameID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game.View(nil, ""))

	case action == "complete" && r.Method == http.MethodPost:
		game, err := s.svc.CompleteGame(ctx, gameID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game.View(nil, ""))

	case action == "hands" && r.Method == http.MethodGet:
		views, err := s.svc.GameHands(ctx, gameID, r.URL.Query().Get("player_id"))
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case action == "state" && r.Method == http.MethodGet:
		view, err := s.svc.GameState(ctx, gameID, r.URL.Query().Get("player_id"))
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHandRoute(w http.ResponseWriter, r *http.Request, handID, action string) {
	ctx := r.Context()
	switch {
	case action == "actions" && r.Method == http.MethodPost:
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "player_id is required")
			return
		}
		hand, err := s.svc.SubmitAction(ctx, handID, req.PlayerID, req.Kind, req.Amount)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hand.View(req.PlayerID))

	case action == "actions" && r.Method == http.MethodGet:
		records, err := s.svc.HandActions(ctx, handID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)

	case action == "reveal" && r.Method == http.MethodPost:
		var req revealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		hand, err := s.svc.RevealCards(ctx, handID, req.PlayerID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hand.View(req.PlayerID))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	applied, err := s.svc.SweepTimeouts(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Applied: applied})
}

// writeDealError answers a deal that found an unfinished hand with the
// hand itself, so a retrying client can resume instead of guessing.
func (s *Server) writeDealError(w http.ResponseWriter, hand domain.Hand, err error) {
	if errors.Is(err, domain.ErrInvalidState) && hand.ID != "" {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": err.Error(),
			"hand":  hand.View(""),
		})
		return
	}
	s.writeDomainError(w, err)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotYourTurn):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
