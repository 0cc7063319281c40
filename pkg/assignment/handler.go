package assignment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jeongsan/jeongsan/pkg/ratetable"
	log "github.com/sirupsen/logrus"
)

type InstitutionDTO struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
}

type InstructorDTO struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	HomeAddress string `json:"homeAddress"`
}

type AssignmentDTO struct {
	Id            string         `json:"id"`
	EducationId   string         `json:"educationId"`
	EducationName string         `json:"educationName"`
	Institution   InstitutionDTO `json:"institution"`
	Instructor    InstructorDTO  `json:"instructor"`
	Role          string         `json:"role"`
	PeriodStart   string         `json:"periodStart"`
	PeriodEnd     string         `json:"periodEnd"`
	SessionDates  []string       `json:"sessionDates"`
	TotalSessions int            `json:"totalSessions"`
	StudentCount  int            `json:"studentCount"`
	HasAssistant  bool           `json:"hasAssistant"`
	Status        string         `json:"educationStatus"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ImportAssignments(w http.ResponseWriter, r *http.Request) {
	log.Debug("Importing assignment snapshot")
	w.Header().Set("Content-Type", "application/json")

	var dtos []AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	assignments := make([]Assignment, 0, len(dtos))
	for _, dto := range dtos {
		a, err := DTOToAssignment(dto)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assignments = append(assignments, a)
	}

	if err := h.service.Import(r.Context(), assignments); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	response := struct {
		Imported int `json:"imported"`
	}{Imported: len(assignments)}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	assignments, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		dtos = append(dtos, AssignmentToDTO(a))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func AssignmentToDTO(a Assignment) AssignmentDTO {
	sessionDates := make([]string, 0, len(a.SessionDates))
	for _, d := range a.SessionDates {
		sessionDates = append(sessionDates, d.Format("2006-01-02"))
	}
	return AssignmentDTO{
		Id:            a.Id,
		EducationId:   a.EducationId,
		EducationName: a.EducationName,
		Institution: InstitutionDTO{
			Id:       a.Institution.Id,
			Name:     a.Institution.Name,
			Category: string(a.Institution.Category),
			Address:  a.Institution.Address,
		},
		Instructor: InstructorDTO{
			Id:          a.Instructor.Id,
			Name:        a.Instructor.Name,
			HomeAddress: a.Instructor.HomeAddress,
		},
		Role:          string(a.Role),
		PeriodStart:   a.PeriodStart.Format("2006-01-02"),
		PeriodEnd:     a.PeriodEnd.Format("2006-01-02"),
		SessionDates:  sessionDates,
		TotalSessions: a.TotalSessions,
		StudentCount:  a.StudentCount,
		HasAssistant:  a.HasAssistant,
		Status:        string(a.Status),
	}
}

func DTOToAssignment(dto AssignmentDTO) (Assignment, error) {
	periodStart, err := time.Parse("2006-01-02", dto.PeriodStart)
	if err != nil {
		return Assignment{}, err
	}
	periodEnd, err := time.Parse("2006-01-02", dto.PeriodEnd)
	if err != nil {
		return Assignment{}, err
	}
	sessionDates := make([]time.Time, 0, len(dto.SessionDates))
	for _, s := range dto.SessionDates {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Assignment{}, err
		}
		sessionDates = append(sessionDates, d)
	}
	return Assignment{
		Id:            dto.Id,
		EducationId:   dto.EducationId,
		EducationName: dto.EducationName,
		Institution: Institution{
			Id:       dto.Institution.Id,
			Name:     dto.Institution.Name,
			Category: ratetable.Category(dto.Institution.Category),
			Address:  dto.Institution.Address,
		},
		Instructor: Instructor{
			Id:          dto.Instructor.Id,
			Name:        dto.Instructor.Name,
			HomeAddress: dto.Instructor.HomeAddress,
		},
		Role:          ratetable.Role(dto.Role),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		SessionDates:  sessionDates,
		TotalSessions: dto.TotalSessions,
		StudentCount:  dto.StudentCount,
		HasAssistant:  dto.HasAssistant,
		Status:        Status(dto.Status),
	}, nil
}
