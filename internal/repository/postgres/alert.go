package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
)

const alertColumns = `
	id, patient_id, observation_id, severity, message,
	acknowledged_at, acknowledged_by, resolved_at, resolved_by,
	created_at, updated_at
`

func (r *alertRepository) Create(ctx context.Context, alert *model.CriticalAlert) error {
	query := `
		INSERT INTO critical_alerts (
			id, patient_id, observation_id, severity, message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = alert.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.PatientID,
		alert.ObservationID,
		alert.Severity,
		alert.Message,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *alertRepository) Get(ctx context.Context, id uuid.UUID) (*model.CriticalAlert, error) {
	var alert model.CriticalAlert
	err := r.db.GetContext(ctx, &alert,
		`SELECT `+alertColumns+` FROM critical_alerts WHERE id = $1`, id)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &alert, nil
}

func (r *alertRepository) GetByObservation(ctx context.Context, observationID uuid.UUID) (*model.CriticalAlert, error) {
	var alert model.CriticalAlert
	err := r.db.GetContext(ctx, &alert,
		`SELECT `+alertColumns+` FROM critical_alerts WHERE observation_id = $1`, observationID)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &alert, nil
}

func (r *alertRepository) Update(ctx context.Context, alert *model.CriticalAlert) error {
	query := `
		UPDATE critical_alerts
		SET acknowledged_at = $1, acknowledged_by = $2,
			resolved_at = $3, resolved_by = $4, updated_at = $5
		WHERE id = $6
	`
	alert.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		alert.AcknowledgedAt,
		alert.AcknowledgedBy,
		alert.ResolvedAt,
		alert.ResolvedBy,
		alert.UpdatedAt,
		alert.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *alertRepository) List(ctx context.Context, filters *model.AlertFilters) ([]*model.CriticalAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM critical_alerts WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argCount)
		args = append(args, filters.Severity)
		argCount++
	}

	if filters.OpenOnly {
		query += " AND (acknowledged_at IS NULL OR resolved_at IS NULL)"
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	var alerts []*model.CriticalAlert
	err := r.db.SelectContext(ctx, &alerts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
