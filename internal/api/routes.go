package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Ledger
	api.HandleFunc("/transactions", handler.RecordTransaction).Methods("POST")
	api.HandleFunc("/transactions", handler.GetTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id:[0-9]+}", handler.DeleteTransaction).Methods("DELETE")
	api.HandleFunc("/trades", handler.RecordTrade).Methods("POST")

	// Derived state
	api.HandleFunc("/holdings", handler.GetAllHoldings).Methods("GET")
	api.HandleFunc("/holdings/{symbol}", handler.GetHolding).Methods("GET")
	api.HandleFunc("/valuations/{symbol}", handler.GetValuation).Methods("GET")
	api.HandleFunc("/snapshots/{symbol}", handler.GetSnapshots).Methods("GET")
	api.HandleFunc("/backfill", handler.Backfill).Methods("POST")

	// Registry
	api.HandleFunc("/assets", handler.GetAssets).Methods("GET")

	return r
}
