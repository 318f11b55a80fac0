package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/valuenable/veena/internal/chat"
	"github.com/valuenable/veena/internal/knowledge"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("httpapi: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinel errors to HTTP status codes.
// Anything unrecognised becomes a 500 with a generic message so internal
// details never leak to callers.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, knowledge.ErrNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, chat.ErrNoSpeechDetected):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":         "No speech detected",
			"transcription": "",
		})
	case errors.Is(err, chat.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, chat.ErrUpstreamFailure):
		writeError(w, http.StatusBadGateway, fallback)
	default:
		slog.Error("httpapi: request failed", "err", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
