package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check.
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Signal intake.
	r.HandleFunc("/signals/bounce", handler.BounceSignal).Methods("POST")

	// Position routes.
	r.HandleFunc("/positions", handler.GetPositions).Methods("GET")
	r.HandleFunc("/positions/{id}/close", handler.ClosePosition).Methods("POST")

	// Aggregates and market access.
	r.HandleFunc("/stats", handler.GetStats).Methods("GET")
	r.HandleFunc("/market/price", handler.GetPrice).Methods("GET")
	r.HandleFunc("/market/price", handler.SetPrice).Methods("POST")

	return r
}
