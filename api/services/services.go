package services

import (
	"context"

	"github.com/EO-DataHub/eodhp-echo-service/internal/appconfig"
	"github.com/EO-DataHub/eodhp-echo-service/models"
	"github.com/rs/zerolog"
)

// Service contains all shared dependencies for handlers.
type Service struct {
	Config   *appconfig.Config
	Recorder Recorder
}

// Recorders records to each sink in turn. A failing sink is logged and
// does not stop the others.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, submission models.Submission) error {
	for _, r := range rs {
		if err := r.Record(ctx, submission); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("submission_id", submission.ID.String()).
				Msg("Recorder failed")
		}
	}
	return nil
}
