package travel

import (
	"encoding/json"
	"net/http"
	"time"
)

type StopDTO struct {
	EducationId        string `json:"educationId"`
	EducationName      string `json:"educationName"`
	InstitutionName    string `json:"institutionName"`
	InstitutionAddress string `json:"institutionAddress"`
}

type RecordDTO struct {
	Id                    string     `json:"id"`
	InstructorId          string     `json:"instructorId"`
	Date                  string     `json:"date"`
	Stops                 []StopDTO  `json:"institutions"`
	TotalDistanceKm       float64    `json:"totalDistanceKm"`
	TravelExpense         int64      `json:"travelExpense"`
	NeedsDistance         bool       `json:"needsDistance,omitempty"`
	RouteMapUrl           string     `json:"routeMapImageUrl,omitempty"`
	DistanceKmOverride    *float64   `json:"distanceKmOverride,omitempty"`
	TravelExpenseOverride *int64     `json:"travelExpenseOverride,omitempty"`
	OverrideReason        string     `json:"overrideReason,omitempty"`
	OverrideBy            string     `json:"overrideBy,omitempty"`
	OverrideAt            *time.Time `json:"overrideDate,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := Filter{InstructorId: r.URL.Query().Get("instructorId")}
	if fromString := r.URL.Query().Get("from"); fromString != "" {
		from, err := time.Parse("2006-01-02", fromString)
		if err != nil {
			http.Error(w, "invalid 'from' date", http.StatusBadRequest)
			return
		}
		filter.From = &from
	}
	if toString := r.URL.Query().Get("to"); toString != "" {
		to, err := time.Parse("2006-01-02", toString)
		if err != nil {
			http.Error(w, "invalid 'to' date", http.StatusBadRequest)
			return
		}
		filter.To = &to
	}

	records, err := h.service.GetAll(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, RecordToDTO(record))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func RecordToDTO(record Record) RecordDTO {
	stops := make([]StopDTO, 0, len(record.Stops))
	for _, stop := range record.Stops {
		stops = append(stops, StopDTO{
			EducationId:        stop.EducationId,
			EducationName:      stop.EducationName,
			InstitutionName:    stop.InstitutionName,
			InstitutionAddress: stop.InstitutionAddress,
		})
	}
	return RecordDTO{
		Id:                    record.Id.String(),
		InstructorId:          record.InstructorId,
		Date:                  record.Date.Format("2006-01-02"),
		Stops:                 stops,
		TotalDistanceKm:       record.TotalDistanceKm,
		TravelExpense:         record.TravelExpense,
		NeedsDistance:         record.NeedsDistance,
		RouteMapUrl:           record.RouteMapUrl,
		DistanceKmOverride:    record.DistanceKmOverride,
		TravelExpenseOverride: record.TravelExpenseOverride,
		OverrideReason:        record.OverrideReason,
		OverrideBy:            record.OverrideBy,
		OverrideAt:            record.OverrideAt,
	}
}
