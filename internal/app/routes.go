package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Assignment feed
	r.HandleFunc("/api/assignment", deps.AssignmentHandler.ImportAssignments).Methods("POST")
	r.HandleFunc("/api/assignment", deps.AssignmentHandler.GetAssignments).Methods("GET")

	// Daily travel records
	r.HandleFunc("/api/travel", deps.TravelHandler.GetRecords).Methods("GET")
	r.HandleFunc("/api/travel/{instructorId}/{date}/override", deps.OverrideHandler.SetDayOverride).Methods("PUT")
	r.HandleFunc("/api/travel/{instructorId}/{date}/override", deps.OverrideHandler.RemoveDayOverride).Methods("DELETE")

	// Settlement
	r.HandleFunc("/api/settlement", deps.SettlementHandler.GetRows).Methods("GET")
	r.HandleFunc("/api/settlement/recompute", deps.SettlementHandler.Recompute).Methods("POST")
	r.HandleFunc("/api/settlement/{rowId}/override", deps.OverrideHandler.SetRowOverride).Methods("PUT")
	r.HandleFunc("/api/settlement/{rowId}/override", deps.OverrideHandler.RemoveRowOverride).Methods("DELETE")

	// Engine settings
	r.HandleFunc("/api/settings/eligibility-mode", deps.SettlementHandler.GetEligibilityMode).Methods("GET")
	r.HandleFunc("/api/settings/eligibility-mode", deps.SettlementHandler.SetEligibilityMode).Methods("PUT")

	// Operator management
	r.HandleFunc("/api/operator/current", deps.OperatorHandler.CurrentOperator).Methods("GET")
	r.HandleFunc("/api/operator", deps.OperatorHandler.CreateOperator).Methods("POST")
	r.HandleFunc("/api/operator", deps.OperatorHandler.GetOperators).Methods("GET")
}
