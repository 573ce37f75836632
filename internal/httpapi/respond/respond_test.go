package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON_WritesStatusAndBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"message": "ok"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["message"] != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestError_WrapsMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, errors.New("url is required"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, w.Code)
	}
	if !strings.Contains(w.Body.String(), "url is required") {
		t.Fatalf("expected body to contain error message, got %q", w.Body.String())
	}
}

func TestSafeError_PassesThroughValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, errors.New("url is required"))

	if !strings.Contains(w.Body.String(), "url is required") {
		t.Fatalf("expected validation message to pass through, got %q", w.Body.String())
	}
}

func TestSafeError_MasksInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusInternalServerError, errors.New("dial postgres://user:hunter2@db:5432/app: connection refused"))

	if strings.Contains(w.Body.String(), "hunter2") {
		t.Fatalf("expected password to be masked, got %q", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Fatalf("expected generic message, got %q", w.Body.String())
	}
}

func TestSanitizeError_MasksDBPassword(t *testing.T) {
	got := SanitizeError(errors.New("dial postgres://user:hunter2@db:5432/app: timeout"))
	if strings.Contains(got, "hunter2") {
		t.Fatalf("expected password to be masked, got %q", got)
	}
}
