package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
)

func (r *scheduleRepository) ListSchedules(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]*model.DoctorSchedule, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute,
			   break_start, break_end, effective_from, effective_until,
			   created_at, updated_at
		FROM doctor_schedules
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY effective_from DESC
	`
	var schedules []*model.DoctorSchedule
	err := r.db.SelectContext(ctx, &schedules, query, doctorID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) HasApprovedLeave(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM doctor_leaves
			WHERE doctor_id = $1
			AND status = 'approved'
			AND start_date <= $2
			AND end_date >= $2
		)
	`
	var onLeave bool
	err := r.db.GetContext(ctx, &onLeave, query, doctorID, model.DateOnly(date))
	if err != nil {
		return false, fmt.Errorf("failed to check leave: %w", err)
	}
	return onLeave, nil
}
