package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
	"github.com/meditrax/clinical-core/pkg/logger"
	"github.com/meditrax/clinical-core/pkg/metrics"
)

// Service manages the per-doctor daily walk-in line. Numbering is owned by
// the storage layer; this service only decides who moves where.
type Service struct {
	repo         repository.QueueRepository
	appointments repository.AppointmentRepository
	metrics      *metrics.Metrics
	log          *logger.Logger
}

func NewService(repo repository.QueueRepository, appointments repository.AppointmentRepository, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		metrics:      m,
		log:          log,
	}
}

// CheckIn moves the appointment to checked_in and issues a queue number.
// Checking in an appointment that already has an entry returns the existing
// entry unchanged, so retries are safe.
func (s *Service) CheckIn(ctx context.Context, appointmentID uuid.UUID) (*model.QueueEntry, error) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if existing, err := s.repo.GetByAppointment(ctx, appointmentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing queue entry: %w", err)
	}

	if !apt.Status.CanTransition(model.AppointmentStatusCheckedIn) {
		return nil, apperrors.InvalidTransition(string(apt.Status), string(model.AppointmentStatusCheckedIn))
	}
	apt.Status = model.AppointmentStatusCheckedIn
	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	entry := &model.QueueEntry{
		Base:          model.Base{ID: uuid.New()},
		AppointmentID: apt.ID,
		DoctorID:      apt.DoctorID,
		Date:          model.DateOnly(apt.Date),
		Status:        model.QueueStatusWaiting,
	}
	if err := s.repo.CreateWithNextNumber(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a check-in race for the same appointment; the winner's
			// entry is the answer.
			existing, getErr := s.repo.GetByAppointment(ctx, appointmentID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load concurrent queue entry: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create queue entry: %w", err)
	}

	s.countCheckIn()
	s.log.Info("patient checked in",
		"appointment_id", apt.ID,
		"queue_number", entry.QueueNumber,
	)
	return entry, nil
}

// Advance closes out the doctor's current in_progress entry, promotes the
// lowest-numbered waiting entry and moves its appointment to in_progress.
// Returns the promoted entry, or nil when the line is empty.
func (s *Service) Advance(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.QueueEntry, error) {
	current, err := s.repo.CurrentInProgress(ctx, doctorID, date)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find current entry: %w", err)
	}
	if current != nil {
		if err := s.finishEntry(ctx, current); err != nil {
			return nil, err
		}
	}

	next, err := s.repo.NextWaiting(ctx, doctorID, date)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("queue empty", "doctor_id", doctorID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find next entry: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, next.ID, model.QueueStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to promote queue entry: %w", err)
	}
	next.Status = model.QueueStatusInProgress

	if err := s.transitionAppointment(ctx, next.AppointmentID, model.AppointmentStatusInProgress); err != nil {
		return nil, err
	}

	s.countAdvance()
	s.log.Info("queue advanced", "doctor_id", doctorID, "queue_number", next.QueueNumber)
	return next, nil
}

func (s *Service) finishEntry(ctx context.Context, entry *model.QueueEntry) error {
	if err := s.repo.UpdateStatus(ctx, entry.ID, model.QueueStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete queue entry: %w", err)
	}
	return s.transitionAppointment(ctx, entry.AppointmentID, model.AppointmentStatusCompleted)
}

func (s *Service) transitionAppointment(ctx context.Context, appointmentID uuid.UUID, target model.AppointmentStatus) error {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("failed to get appointment: %w", err)
	}
	if !apt.Status.CanTransition(target) {
		return apperrors.InvalidTransition(string(apt.Status), string(target))
	}
	apt.Status = target
	if err := s.appointments.Update(ctx, apt); err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// Skip sends a waiting entry to the back of the line with a fresh number.
// The patient stays waiting; their old number is never reused.
func (s *Service) Skip(ctx context.Context, entryID uuid.UUID) (*model.QueueEntry, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("queue entry", err)
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	if entry.Status != model.QueueStatusWaiting {
		return nil, apperrors.BadRequest("only waiting entries can be skipped", nil)
	}

	reissued, err := s.repo.Reissue(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reissue queue number: %w", err)
	}

	s.countSkip()
	s.log.Info("queue entry skipped",
		"entry_id", entry.ID,
		"old_number", entry.QueueNumber,
		"new_number", reissued.QueueNumber,
	)
	return reissued, nil
}

// Position reports how many waiting patients are ahead of the entry.
func (s *Service) Position(ctx context.Context, entryID uuid.UUID) (*model.QueuePosition, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("queue entry", err)
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}

	ahead := 0
	if entry.Status == model.QueueStatusWaiting {
		ahead, err = s.repo.CountWaitingAhead(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to count waiting entries: %w", err)
		}
	}
	return &model.QueuePosition{Entry: entry, Ahead: ahead}, nil
}

// CloseQueue is the day-end sweep: every entry still waiting is marked
// skipped so tomorrow's line starts clean.
func (s *Service) CloseQueue(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	closed := 0
	for {
		next, err := s.repo.NextWaiting(ctx, doctorID, date)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return closed, fmt.Errorf("failed to find waiting entry: %w", err)
		}
		if err := s.repo.UpdateStatus(ctx, next.ID, model.QueueStatusSkipped); err != nil {
			return closed, fmt.Errorf("failed to skip queue entry: %w", err)
		}
		closed++
	}
	if closed > 0 {
		s.log.Info("queue closed", "doctor_id", doctorID, "skipped", closed)
	}
	return closed, nil
}

func (s *Service) countCheckIn() {
	if s.metrics != nil {
		s.metrics.CheckInsTotal.Inc()
	}
}

func (s *Service) countAdvance() {
	if s.metrics != nil {
		s.metrics.QueueAdvances.Inc()
	}
}

func (s *Service) countSkip() {
	if s.metrics != nil {
		s.metrics.QueueSkips.Inc()
	}
}
