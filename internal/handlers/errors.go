package handlers

import (
	"errors"
	"net/http"

	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/service"

	"go.uber.org/zap"
)

// handleError writes err as a response. Business errors keep their code and
// details; anything else becomes a 500 that says nothing about the cause.
func handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) || businessErr.Code == service.CodeInternal {
		logger.Error("HTTP: request failed", err,
			zap.String("operation", op),
			zap.String("request_id", requestID))
		responseWithJSON(w, http.StatusInternalServerError,
			toPayload("error", service.CodeInternal),
			toPayload("message", "internal server error"),
			toPayload("request_id", requestID),
		)
		return
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	logger.Warn("HTTP: business error",
		zap.String("operation", op),
		zap.String("error_code", businessErr.Code),
		zap.String("request_id", requestID),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
		toPayload("request_id", requestID),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
