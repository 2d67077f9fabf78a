package services

import (
	"encoding/json"
	"net/http"

	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/rs/zerolog"
)

// WriteResponse writes response as JSON with the given status code.
func WriteResponse(w http.ResponseWriter, r *http.Request, statusCode int, response interface{}) {

	w.Header().Set("Content-Type", "application/json")

	// Echoed data must reach the client as current as it was sent
	w.Header().Set("Cache-Control", "max-age=0")

	w.WriteHeader(statusCode)

	if response == nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(response); err != nil {
		// Headers are already sent so all that is left is to record it
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", statusCode).
			Msg("Failed to encode response")
	}
}

// WriteErrResponse writes the single-field error envelope.
func WriteErrResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	WriteResponse(w, r, statusCode, models.ErrorResponse{Error: message})
}
