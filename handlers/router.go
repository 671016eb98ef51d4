package handlers

import (
	"net/http"

	"nfl-pool/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the API routes
func NewRouter(recaps *RecapHandler, health *HealthHandler, auth *middleware.AdminAuth, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.SecurityMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	admin := api.PathPrefix("/recaps").Methods(http.MethodPost).Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc("/week", recaps.TriggerWeek)
	admin.HandleFunc("/season", recaps.RunSeason)

	api.HandleFunc("/recaps/{weekId}", recaps.GetRecap).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", recaps.GetLeaderboard).Methods(http.MethodGet)

	r.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}
