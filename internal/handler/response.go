package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string           `json:"error"`
	Kind    domain.ErrorKind `json:"kind,omitempty"`
	Details string           `json:"details,omitempty"`
}

// statusFor maps engine error kinds to HTTP status codes
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidReference:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindPersistence:
		return http.StatusServiceUnavailable
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err))
	}
	writeJSON(w, logger, ErrorResponse{
		Error:   message,
		Kind:    domain.KindOf(err),
		Details: err.Error(),
	}, status)
}

// decode reads a JSON body into dst and validates it
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid request body: %v", err)
	}
	if err := v.Struct(dst); err != nil {
		return domain.Errorf(domain.ErrValidation, "%v", err)
	}
	return nil
}
