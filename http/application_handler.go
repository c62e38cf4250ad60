package http

import (
	"net/http"

	"underwriting-agent/service"
)

type ApplicationHandler struct {
	service *service.UnderwritingService
}

func NewApplicationHandler(service *service.UnderwritingService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// GetApplication returns a previously stored evaluation by application ID.
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	eval, ok, err := h.service.FindApplication(id)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "application not found", http.StatusNotFound)
		return
	}

	writeJSON(w, eval)
}
