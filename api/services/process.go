package services

import (
	"net/http"
	"time"

	"github.com/EO-DataHub/eodhp-echo-service/api/middleware"
	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProcessDataService parses the request body, records it and echoes it back.
func ProcessDataService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	if svc.Config != nil && svc.Config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, svc.Config.MaxBodyBytes)
	}

	payload, err := ParsePayload(r.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("Error occurred parsing request body")
		WriteErrResponse(w, r, http.StatusBadRequest, ErrorMessage(err))
		return
	}

	if svc.Recorder != nil {
		submission := models.Submission{
			ID:          submissionID(r),
			ReceivedAt:  time.Now().UTC(),
			RemoteAddr:  r.RemoteAddr,
			ContentType: r.Header.Get("Content-Type"),
			Payload:     payload,
		}
		recordSafely(svc.Recorder, r, submission)
	}

	WriteResponse(w, r, http.StatusOK, models.ReceivedResponse{
		Message:      models.ReceivedMessage,
		ReceivedData: payload,
	})
}

// recordSafely keeps a misbehaving sink from failing the request.
func recordSafely(rec Recorder, r *http.Request, submission models.Submission) {
	logger := zerolog.Ctx(r.Context())

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("Recorder panicked")
		}
	}()

	if err := rec.Record(r.Context(), submission); err != nil {
		logger.Warn().Err(err).Msg("Failed to record submission")
	}
}

func submissionID(r *http.Request) uuid.UUID {
	if id, err := uuid.Parse(middleware.RequestID(r.Context())); err == nil {
		return id
	}
	return uuid.New()
}
