package handlers

import (
	"net/http"

	services "github.com/EO-DataHub/eodhp-echo-service/api/services"
)

// @Summary Submit a JSON payload
// @Description Accepts any JSON value, records it and echoes it back unchanged.
// @Tags data
// @Accept json
// @Produce json
// @Param payload body object true "Any JSON value"
// @Success 200 {object} models.ReceivedResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /process-data [post]
func ProcessData(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ProcessDataService(svc, w, r)
	}
}
