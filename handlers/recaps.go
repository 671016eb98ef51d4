package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nfl-pool/interfaces"
	"nfl-pool/logging"
	"nfl-pool/middleware"
	"nfl-pool/services"

	"github.com/gorilla/mux"
)

// RecapHandler serves the recap trigger and leaderboard API
type RecapHandler struct {
	trigger     interfaces.RecapTrigger
	recaps      services.RecapStore
	leaderboard interfaces.LeaderboardProvider
	logger      *logging.Logger
}

// NewRecapHandler creates a new recap handler
func NewRecapHandler(trigger interfaces.RecapTrigger, recaps services.RecapStore, leaderboard interfaces.LeaderboardProvider) *RecapHandler {
	return &RecapHandler{
		trigger:     trigger,
		recaps:      recaps,
		leaderboard: leaderboard,
		logger:      logging.WithPrefix("RecapAPI"),
	}
}

type seasonRequest struct {
	Season int  `json:"season"`
	Force  bool `json:"force"`
}

// TriggerWeek recaps one week named by weekId or weekOffset
func (h *RecapHandler) TriggerWeek(w http.ResponseWriter, r *http.Request) {
	var req services.TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.logger.Infof("Week recap requested by %s (force=%t)", middleware.GetCallerFromContext(r), req.Force)
	result, err := h.trigger.Trigger(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidTrigger):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrWeekNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil && result == nil:
		writeError(w, http.StatusBadGateway, err.Error())
	case err != nil:
		writeJSON(w, http.StatusBadGateway, result)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// RunSeason recaps every started week of a season
func (h *RecapHandler) RunSeason(w http.ResponseWriter, r *http.Request) {
	var req seasonRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.Season == 0 {
		req.Season = h.trigger.DefaultSeason()
	}

	h.logger.Infof("Season %d batch requested by %s (force=%t)", req.Season, middleware.GetCallerFromContext(r), req.Force)
	summary, err := h.trigger.RunSeason(r.Context(), req.Season, services.ModeManual, req.Force)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetRecap returns a stored week recap
func (h *RecapHandler) GetRecap(w http.ResponseWriter, r *http.Request) {
	weekID := mux.Vars(r)["weekId"]
	recap, err := h.recaps.GetRecap(r.Context(), weekID)
	if err != nil {
		h.logger.Errorf("Failed to read recap %s: %v", weekID, err)
		writeError(w, http.StatusInternalServerError, "Error loading recap")
		return
	}
	if recap == nil {
		writeError(w, http.StatusNotFound, "recap not found")
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

// GetLeaderboard returns the season standings
func (h *RecapHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	season, ok := parseSeason(r, h.trigger.DefaultSeason())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid season")
		return
	}

	active, err := h.trigger.ResolveActiveWeek(r.Context(), season)
	if err != nil {
		h.logger.Errorf("Failed to resolve active week for %d: %v", season, err)
		writeError(w, http.StatusBadGateway, "results provider unavailable")
		return
	}

	board, err := h.leaderboard.GetLeaderboard(r.Context(), active)
	if err != nil {
		h.logger.Errorf("Failed to build leaderboard for %d: %v", season, err)
		writeError(w, http.StatusInternalServerError, "Error loading leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, board)
}
