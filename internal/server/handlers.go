package server

import (
	"encoding/json"
	"net/http"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

// NewGameRequest is the body of POST /api/new-game.
type NewGameRequest struct {
	Game string `json:"game"`
}

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Game      string `json:"game"`
	Command   string `json:"command"`
	SessionID string `json:"sessionId"`
}

// newGame handles POST /api/new-game.
func (s *Server) newGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := s.sessions.Begin(r.Context(), game.ID(req.Game))
	if err != nil {
		logging.Error().Err(err).Str("game", req.Game).Msg("new game failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.NewGameResponse{
		SessionID: result.SessionID,
		Output:    result.Output,
	})
}

// command handles POST /api/command.
func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	out, err := s.sessions.Command(r.Context(), game.ID(req.Game), req.SessionID, req.Command)
	if err != nil {
		logging.Error().Err(err).Str("game", req.Game).Str("session", req.SessionID).
			Msg("command failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.CommandResponse{Output: out})
}

// listGames handles GET /api/games.
func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	defs := s.games.List()
	infos := make([]types.GameInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, types.GameInfo{ID: string(def.ID), Name: def.Name})
	}
	writeJSON(w, http.StatusOK, infos)
}

// health handles GET /healthz.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
