// Package web holds small HTTP helpers shared by the HTML and JSON handlers.
package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	internal_errors "github.com/agora-dev/agora/internal/errors"
	"github.com/agora-dev/agora/internal/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteError maps an error to its HTTP status. Errors without an attached
// status become 500.
func WriteError(w http.ResponseWriter, err error) {
	if e, ok := err.(*internal_errors.ErrorWithStatusCode); ok {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// DecodeValidate parses a JSON body into dst and checks its validate tags.
func DecodeValidate(r io.ReadCloser, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		logger.Log.Debug("rejecting malformed request body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "body is invalid json", StatusCode: http.StatusBadRequest}
	}
	if err := validate.Struct(dst); err != nil {
		logger.Log.Debug("rejecting invalid request body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("writing json response", "error", err)
	}
}
