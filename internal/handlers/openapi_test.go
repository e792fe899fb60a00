package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/keyword-rotator/api/openapi"
	"github.com/gorilla/mux"
)

func TestOpenAPIHandler_EmbeddedDocument(t *testing.T) {
	t.Parallel()

	h, err := NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error = %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("yaml status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/v1/keywords/rotate") {
		t.Error("yaml document is missing the rotate path")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("json status = %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("json document does not decode: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
}

func TestNewOpenAPIHandler_InvalidYAML(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAPIHandler([]byte("openapi: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}
