package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
)

// Sentinel errors the storage layer maps driver failures onto. Services
// translate these into the API error taxonomy.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("row not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint: the slot index on appointments, the queue-number index,
	// or the observation dedupe index on alerts.
	ErrDuplicate = errors.New("duplicate row")
)

// All repository interfaces in one file
type (
	// ScheduleRepository reads the externally managed reference data:
	// weekly schedules and leave. Read-only to this core.
	ScheduleRepository interface {
		ListSchedules(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]*model.DoctorSchedule, error)
		HasApprovedLeave(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error)
	}

	AppointmentRepository interface {
		// Create inserts under the partial unique index on
		// (doctor_id, date, start_minute) over non-cancelled rows and
		// returns ErrDuplicate on violation.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		ListForDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	QueueRepository interface {
		// CreateWithNextNumber assigns MAX+1 for (doctor, date) inside a
		// transaction and retries on the unique index, so numbering stays
		// gap-free and unique without in-process counters.
		CreateWithNextNumber(ctx context.Context, entry *model.QueueEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.QueueEntry, error)
		CurrentInProgress(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.QueueEntry, error)
		NextWaiting(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.QueueEntry, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.QueueStatus) error
		// Reissue moves an entry to the end of the line: new MAX+1 number,
		// status back to waiting.
		Reissue(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error)
		CountWaitingAhead(ctx context.Context, entry *model.QueueEntry) (int, error)
	}

	ObservationRepository interface {
		Create(ctx context.Context, obs *model.Observation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Observation, error)
	}

	// ReferenceRangeRepository looks up externally supplied ranges.
	// Returns (nil, nil) when no row exists for the parameter/bucket pair
	// and an error for malformed documents; it never fabricates a range.
	ReferenceRangeRepository interface {
		GetRange(ctx context.Context, parameter string, bucket model.Bucket) (*model.ReferenceRange, error)
	}

	AlertRepository interface {
		// Create returns ErrDuplicate when an alert already exists for the
		// observation.
		Create(ctx context.Context, alert *model.CriticalAlert) error
		Get(ctx context.Context, id uuid.UUID) (*model.CriticalAlert, error)
		GetByObservation(ctx context.Context, observationID uuid.UUID) (*model.CriticalAlert, error)
		Update(ctx context.Context, alert *model.CriticalAlert) error
		List(ctx context.Context, filters *model.AlertFilters) ([]*model.CriticalAlert, error)
	}
)
