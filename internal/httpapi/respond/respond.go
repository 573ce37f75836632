// Package respond provides utilities for sending HTTP responses in JSON
// format, including error handling that sanitizes sensitive details before
// they reach a client.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code), slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeErrorSubstrings are the categories of error text considered safe to
// echo back verbatim — validation complaints, not internals.
var safeErrorSubstrings = []string{
	"required", "invalid", "not found", "already exists",
	"must be", "cannot be", "too long", "too short",
}

// SafeError sanitizes error messages before returning them to callers.
// Validation-shaped errors are returned as-is; anything else (a database
// error, a parse panic) is logged server-side and replaced with a generic
// message so the caller never sees internal detail.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	isSafe := code < 500
	if isSafe {
		lower := strings.ToLower(msg)
		isSafe = false
		for _, s := range safeErrorSubstrings {
			if strings.Contains(lower, s) {
				isSafe = true
				break
			}
		}
	}

	if isSafe {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
