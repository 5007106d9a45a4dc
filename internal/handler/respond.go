package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"evote-api/pkg/errors"
)

// respondJSON writes data as a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError maps an error to the JSON error envelope. AppErrors keep their
// taxonomy and status; anything else becomes an opaque internal error so
// database and driver details never reach clients.
func respondError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}
