package operator

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type OperatorDTO struct {
	Uid         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CurrentOperator(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	op, err := h.service.GetCurrent(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoOperator) {
			http.Error(w, "operator not identified", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(toDTO(op)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating operator")
	w.Header().Set("Content-Type", "application/json")

	var dto OperatorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.DisplayName == "" {
		http.Error(w, "displayName is required", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), Operator{Uid: dto.Uid, DisplayName: dto.DisplayName})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetOperators(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	operators, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]OperatorDTO, 0, len(operators))
	for _, op := range operators {
		dtos = append(dtos, toDTO(op))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(op Operator) OperatorDTO {
	return OperatorDTO{Uid: op.Uid, DisplayName: op.DisplayName}
}
