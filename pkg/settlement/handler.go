package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jeongsan/jeongsan/pkg/ratetable"
	log "github.com/sirupsen/logrus"
)

type RowDTO struct {
	Id             string `json:"id"`
	EducationId    string `json:"educationId"`
	EducationName  string `json:"educationName"`
	InstructorId   string `json:"instructorId"`
	InstructorName string `json:"instructorName"`
	Role           string `json:"role"`

	DistanceKm          float64 `json:"distanceKm"`
	DistanceSource      string  `json:"distanceSource"`
	DailyTravelRecordId *string `json:"dailyTravelRecordId,omitempty"`
	TravelExpense       int64   `json:"travelExpense"`

	AllowanceBase    int64  `json:"allowanceBase"`
	AllowanceWeekend int64  `json:"allowanceWeekend"`
	AllowanceExtra   *int64 `json:"allowanceExtra,omitempty"`
	AllowanceTotal   int64  `json:"allowanceTotal"`

	TotalPay           int64  `json:"totalPay"`
	IsCountingEligible bool   `json:"isCountingEligible"`
	Status             string `json:"status"`
	PendingReason      string `json:"pendingReason,omitempty"`

	DistanceKmOverride    *float64   `json:"distanceKmOverride,omitempty"`
	TravelExpenseOverride *int64     `json:"travelExpenseOverride,omitempty"`
	AllowanceOverride     *int64     `json:"allowanceOverride,omitempty"`
	OverrideReason        string     `json:"overrideReason,omitempty"`
	OverrideBy            string     `json:"overrideBy,omitempty"`
	OverrideDate          *time.Time `json:"overrideDate,omitempty"`
}

type EligibilityModeDTO struct {
	Mode string `json:"mode"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetRows(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting settlement rows")
	w.Header().Set("Content-Type", "application/json")

	filter := Filter{
		InstructorId: r.URL.Query().Get("instructorId"),
		EducationId:  r.URL.Query().Get("educationId"),
		EligibleOnly: r.URL.Query().Get("eligibleOnly") == "true",
	}
	rows, err := h.service.GetRows(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]RowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, RowToDTO(row))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	log.Debug("Recomputing settlement")
	if err := h.service.Recompute(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetEligibilityMode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	mode, err := h.service.GetEligibilityMode(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(EligibilityModeDTO{Mode: string(mode)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetEligibilityMode(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting eligibility mode")
	var dto EligibilityModeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := ParseEligibilityMode(dto.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.SetEligibilityMode(r.Context(), mode); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeEngineError(w http.ResponseWriter, err error) {
	var invalidTable *ratetable.InvalidRateTableError
	if errors.As(err, &invalidTable) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func RowToDTO(row Row) RowDTO {
	dto := RowDTO{
		Id:                    row.Id.String(),
		EducationId:           row.EducationId,
		EducationName:         row.EducationName,
		InstructorId:          row.InstructorId,
		InstructorName:        row.InstructorName,
		Role:                  string(row.Role),
		DistanceKm:            row.EffectiveDistanceKm(),
		DistanceSource:        string(row.DistanceSource),
		TravelExpense:         row.EffectiveTravelExpense(),
		AllowanceBase:         row.AllowanceBase,
		AllowanceWeekend:      row.AllowanceWeekend,
		AllowanceExtra:        row.AllowanceExtra,
		AllowanceTotal:        row.EffectiveAllowanceTotal(),
		TotalPay:              row.TotalPay,
		IsCountingEligible:    row.IsCountingEligible,
		Status:                string(row.Status),
		PendingReason:         row.PendingReason,
		DistanceKmOverride:    row.DistanceKmOverride,
		TravelExpenseOverride: row.TravelExpenseOverride,
		AllowanceOverride:     row.AllowanceOverride,
		OverrideReason:        row.OverrideReason,
		OverrideBy:            row.OverrideBy,
		OverrideDate:          row.OverrideAt,
	}
	if row.DailyTravelRecordId != nil {
		id := row.DailyTravelRecordId.String()
		dto.DailyTravelRecordId = &id
	}
	return dto
}
