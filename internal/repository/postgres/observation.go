package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
)

func (r *observationRepository) Create(ctx context.Context, obs *model.Observation) error {
	query := `
		INSERT INTO observations (
			id, patient_id, kind, parameter, value, unit,
			recorded_at, recorder_id, needs_review,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	obs.CreatedAt = time.Now()
	obs.UpdatedAt = obs.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		obs.ID,
		obs.PatientID,
		obs.Kind,
		obs.Parameter,
		obs.Value,
		obs.Unit,
		obs.RecordedAt,
		obs.RecorderID,
		obs.NeedsReview,
		obs.CreatedAt,
		obs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create observation: %w", err)
	}
	return nil
}

func (r *observationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Observation, error) {
	query := `
		SELECT id, patient_id, kind, parameter, value, unit,
			   recorded_at, recorder_id, needs_review,
			   created_at, updated_at
		FROM observations
		WHERE id = $1
	`
	var obs model.Observation
	err := r.db.GetContext(ctx, &obs, query, id)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &obs, nil
}
