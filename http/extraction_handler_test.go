package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"underwriting-agent/service"
)

func TestExtractAndEvaluateHandler_UnavailableWithoutAPIKey(t *testing.T) {
	underwriting := newTestUnderwritingService()
	handler := NewExtractionHandler(service.NewAIService(""), underwriting)

	req := httptest.NewRequest(
		http.MethodPost,
		"/underwriting/extract",
		bytes.NewBufferString(`{"text": "W-2 for Jordan Rivera..."}`),
	)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.ExtractAndEvaluate(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestExtractAndEvaluateHandler_MethodNotAllowed(t *testing.T) {
	underwriting := newTestUnderwritingService()
	handler := NewExtractionHandler(service.NewAIService(""), underwriting)

	req := httptest.NewRequest(http.MethodGet, "/underwriting/extract", nil)
	w := httptest.NewRecorder()
	handler.ExtractAndEvaluate(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestExtractAndEvaluateHandler_BadJSON(t *testing.T) {
	underwriting := newTestUnderwritingService()
	handler := NewExtractionHandler(service.NewAIService(""), underwriting)

	req := httptest.NewRequest(
		http.MethodPost,
		"/underwriting/extract",
		bytes.NewBufferString(`{not-json`),
	)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.ExtractAndEvaluate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
