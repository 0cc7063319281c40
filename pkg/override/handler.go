package override

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jeongsan/jeongsan/pkg/operator"
	log "github.com/sirupsen/logrus"
)

type RowOverrideDTO struct {
	DistanceKmOverride    *float64   `json:"distanceKmOverride,omitempty"`
	TravelExpenseOverride *int64     `json:"travelExpenseOverride,omitempty"`
	AllowanceOverride     *int64     `json:"allowanceOverride,omitempty"`
	Reason                string     `json:"reason"`
	ExpectedOverrideDate  *time.Time `json:"expectedOverrideDate,omitempty"`
}

type DayOverrideDTO struct {
	DistanceKmOverride    *float64   `json:"distanceKmOverride,omitempty"`
	TravelExpenseOverride *int64     `json:"travelExpenseOverride,omitempty"`
	Reason                string     `json:"reason"`
	ExpectedOverrideDate  *time.Time `json:"expectedOverrideDate,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SetRowOverride(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting settlement row override")
	w.Header().Set("Content-Type", "application/json")

	rowId, err := uuid.Parse(mux.Vars(r)["rowId"])
	if err != nil {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return
	}
	var dto RowOverrideDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := RowPatch{
		DistanceKm:    dto.DistanceKmOverride,
		TravelExpense: dto.TravelExpenseOverride,
		Allowance:     dto.AllowanceOverride,
	}
	err = h.service.SetRowOverride(r.Context(), rowId, patch, dto.Reason, dto.ExpectedOverrideDate)
	if err != nil {
		writeOverrideError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveRowOverride(w http.ResponseWriter, r *http.Request) {
	rowId, err := uuid.Parse(mux.Vars(r)["rowId"])
	if err != nil {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return
	}
	if err := h.service.RemoveRowOverride(r.Context(), rowId); err != nil {
		writeOverrideError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetDayOverride(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting daily travel record override")
	w.Header().Set("Content-Type", "application/json")

	vars := mux.Vars(r)
	instructorId := vars["instructorId"]
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	var dto DayOverrideDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := DayPatch{
		DistanceKm:    dto.DistanceKmOverride,
		TravelExpense: dto.TravelExpenseOverride,
	}
	err = h.service.SetDayOverride(r.Context(), instructorId, date, patch, dto.Reason, dto.ExpectedOverrideDate)
	if err != nil {
		writeOverrideError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveDayOverride(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instructorId := vars["instructorId"]
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := h.service.RemoveDayOverride(r.Context(), instructorId, date); err != nil {
		writeOverrideError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeOverrideError(w http.ResponseWriter, err error) {
	var scopeConflict *ScopeConflictError
	var staleWrite *StaleWriteError
	switch {
	case errors.Is(err, ErrReasonRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrRowNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, operator.ErrNoOperator):
		http.Error(w, "operator not identified", http.StatusForbidden)
	case errors.As(err, &scopeConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &staleWrite):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
