package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Submission is a received payload plus the request metadata handed to
// the observability sinks.
type Submission struct {
	ID          uuid.UUID       `json:"id"`
	ReceivedAt  time.Time       `json:"receivedAt"`
	RemoteAddr  string          `json:"remoteAddr,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}
