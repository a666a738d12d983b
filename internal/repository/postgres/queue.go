package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
)

// numberRetries bounds the MAX+1 retry loop. Concurrent check-ins for the
// same doctor collide on the unique index and pick up the next number.
const numberRetries = 5

// appointmentConstraint is the unique constraint on appointment_id. Hitting
// it means a concurrent check-in already created the entry; retrying the
// number cannot help.
const appointmentConstraint = "uq_queue_entries_appointment"

// errNumberTaken marks a queue_number collision inside the MAX+1 loop.
var errNumberTaken = errors.New("queue number taken")

func (r *queueRepository) CreateWithNextNumber(ctx context.Context, entry *model.QueueEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.Date = model.DateOnly(entry.Date)
	entry.Status = model.QueueStatusWaiting

	for attempt := 0; attempt < numberRetries; attempt++ {
		err := r.insertNext(ctx, entry)
		if err == nil {
			return nil
		}
		if errors.Is(err, errNumberTaken) {
			continue
		}
		return err
	}
	return fmt.Errorf("queue number contention persisted after %d attempts", numberRetries)
}

func (r *queueRepository) insertNext(ctx context.Context, entry *model.QueueEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.GetContext(ctx, &next, `
		SELECT COALESCE(MAX(queue_number), 0) + 1
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2
	`, entry.DoctorID, entry.Date)
	if err != nil {
		return fmt.Errorf("failed to compute next queue number: %w", err)
	}

	entry.QueueNumber = next
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queue_entries (
			id, appointment_id, doctor_id, date, queue_number, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID,
		entry.AppointmentID,
		entry.DoctorID,
		entry.Date,
		entry.QueueNumber,
		entry.Status,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return mapQueueViolation(err)
		}
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return mapQueueViolation(err)
		}
		return fmt.Errorf("failed to commit queue entry: %w", err)
	}
	return nil
}

func mapQueueViolation(err error) error {
	if violatedConstraint(err) == appointmentConstraint {
		return repository.ErrDuplicate
	}
	return errNumberTaken
}

const queueColumns = `
	id, appointment_id, doctor_id, date, queue_number, status,
	created_at, updated_at
`

func (r *queueRepository) Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT `+queueColumns+` FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &entry, nil
}

func (r *queueRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT `+queueColumns+` FROM queue_entries WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &entry, nil
}

func (r *queueRepository) CurrentInProgress(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT `+queueColumns+`
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2 AND status = 'in_progress'
		ORDER BY queue_number ASC
		LIMIT 1
	`, doctorID, model.DateOnly(date))
	if err != nil {
		return nil, mapRowError(err)
	}
	return &entry, nil
}

func (r *queueRepository) NextWaiting(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT `+queueColumns+`
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2 AND status = 'waiting'
		ORDER BY queue_number ASC
		LIMIT 1
	`, doctorID, model.DateOnly(date))
	if err != nil {
		return nil, mapRowError(err)
	}
	return &entry, nil
}

func (r *queueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QueueStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
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

func (r *queueRepository) Reissue(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	entry, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < numberRetries; attempt++ {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin tx: %w", err)
		}

		var next int
		err = tx.GetContext(ctx, &next, `
			SELECT COALESCE(MAX(queue_number), 0) + 1
			FROM queue_entries
			WHERE doctor_id = $1 AND date = $2
		`, entry.DoctorID, entry.Date)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to compute next queue number: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE queue_entries
			SET queue_number = $1, status = 'waiting', updated_at = $2
			WHERE id = $3
		`, next, time.Now(), id)
		if err != nil {
			tx.Rollback()
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("failed to reissue queue entry: %w", err)
		}

		if err := tx.Commit(); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("failed to commit reissue: %w", err)
		}

		entry.QueueNumber = next
		entry.Status = model.QueueStatusWaiting
		return entry, nil
	}
	return nil, fmt.Errorf("queue number contention persisted after %d attempts", numberRetries)
}

func (r *queueRepository) CountWaitingAhead(ctx context.Context, entry *model.QueueEntry) (int, error) {
	var ahead int
	err := r.db.GetContext(ctx, &ahead, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2
		AND status = 'waiting'
		AND queue_number < $3
	`, entry.DoctorID, model.DateOnly(entry.Date), entry.QueueNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting entries: %w", err)
	}
	return ahead, nil
}
