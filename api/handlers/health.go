package handlers

import (
	"net/http"

	services "github.com/EO-DataHub/eodhp-echo-service/api/services"
	"github.com/EO-DataHub/eodhp-echo-service/models"
)

// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services.WriteResponse(w, r, http.StatusOK, models.HealthResponse{Status: "ok"})
	}
}

// NotFound answers unknown routes with the JSON error envelope.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services.WriteErrResponse(w, r, http.StatusNotFound, "resource not found")
	}
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services.WriteErrResponse(w, r, http.StatusMethodNotAllowed,
			"method "+r.Method+" not allowed")
	}
}
