package models

import "encoding/json"

// ReceivedMessage confirms a payload was accepted.
const ReceivedMessage string = "Data received successfully!"

// ReceivedResponse wraps an accepted payload. ReceivedData is the request
// body exactly as parsed and is never omitted, so a null payload echoes as null.
type ReceivedResponse struct {
	Message      string          `json:"message" example:"Data received successfully!"`
	ReceivedData json.RawMessage `json:"received_data" swaggertype:"object"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid character 'o' in literal null (expecting 'u')"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
