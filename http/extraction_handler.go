package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"underwriting-agent/domain"
	"underwriting-agent/service"
)

type ExtractionHandler struct {
	ai      *service.AIService
	service *service.UnderwritingService
}

func NewExtractionHandler(ai *service.AIService, underwriting *service.UnderwritingService) *ExtractionHandler {
	return &ExtractionHandler{ai: ai, service: underwriting}
}

type ExtractionRequest struct {
	Text string `json:"text"`
}

type ExtractionResponse struct {
	Record     domain.BorrowerRecord `json:"record"`
	Evaluation domain.Evaluation     `json:"evaluation"`
}

// ExtractAndEvaluate structures raw document text into a borrower record
// and runs the underwriting evaluation on it in one call.
func (h *ExtractionHandler) ExtractAndEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var req ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.ai.ExtractBorrowerRecord(req.Text)
	if err != nil {
		if errors.Is(err, service.ErrExtractionUnavailable) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		log.Printf("Error extracting borrower record: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	eval, err := h.service.EvaluateApplication(record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, ExtractionResponse{Record: record, Evaluation: eval})
}
