package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"nfl-pool/logging"
)

// writeJSON sends v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("Error encoding response: %v", err)
	}
}

// writeError sends {"error": message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseSeason reads an optional season query parameter
func parseSeason(r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return fallback, true
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1920 {
		return 0, false
	}
	return season, true
}
