package handlers

import (
	"encoding/json"
	"net/http"

	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

// responseWithJSON writes one JSON object whose keys are the payload keys.
func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if code == http.StatusNoContent {
		return
	}

	body := make(map[string]any, len(payload))
	for _, pl := range payload {
		body[pl.Key] = pl.Payload
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("HTTP: writing response body", zap.Error(err))
	}
}

func responseWithError(w http.ResponseWriter, code int, errCode, message string) {
	responseWithJSON(w, code, toPayload("error", errCode), toPayload("message", message))
}
