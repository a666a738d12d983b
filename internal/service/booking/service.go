package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	"github.com/meditrax/clinical-core/internal/service/availability"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
	"github.com/meditrax/clinical-core/pkg/logger"
	"github.com/meditrax/clinical-core/pkg/metrics"
)

const (
	MinAppointmentDuration = 5 * time.Minute
	MaxAppointmentDuration = 4 * time.Hour
)

// Service is the booking engine. It drives the appointment state machine
// and owns the two-phase booking flow: an advisory availability pre-check
// followed by the constrained insert, which is the authoritative guard
// against concurrent double-booking.
type Service struct {
	repo     repository.AppointmentRepository
	queues   repository.QueueRepository
	resolver *availability.Service
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, queues repository.QueueRepository, resolver *availability.Service, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		queues:   queues,
		resolver: resolver,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// BookAppointment validates the request, confirms the slot looks open, then
// commits under the uniqueness constraint. A constraint violation surfaces
// as SlotConflict so the caller can re-query availability and pick again;
// it is never retried server-side.
func (s *Service) BookAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	return s.book(ctx, req, nil)
}

// book carries the optional back-link to a rescheduled appointment so it is
// part of the insert itself; rescheduled_from is never updated afterwards.
func (s *Service) book(ctx context.Context, req *model.CreateAppointmentRequest, rescheduledFrom *uuid.UUID) (*model.Appointment, error) {
	apt, err := s.buildAppointment(req)
	if err != nil {
		return nil, err
	}
	apt.RescheduledFrom = rescheduledFrom

	// Advisory pre-check. It can be stale under concurrent requests; the
	// insert below is what actually prevents double-booking.
	open, err := s.slotIsOpen(ctx, apt)
	if err != nil {
		return nil, err
	}
	if !open {
		s.countBooking("conflict")
		return nil, apperrors.SlotConflict("slot is not available", nil)
	}

	start := s.now()
	err = s.repo.Create(ctx, apt)
	s.observeBookingLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.countBooking("conflict")
			s.countSlotConflict()
			return nil, apperrors.SlotConflict("slot was booked concurrently", err)
		}
		s.countBooking("error")
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.countBooking("booked")
	s.log.Info("appointment booked",
		"appointment_id", apt.ID,
		"doctor_id", apt.DoctorID,
		"date", apt.Date.Format("2006-01-02"),
		"start", apt.StartMinute.String(),
	)
	return apt, nil
}

func (s *Service) buildAppointment(req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}

	start, err := model.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start time", err)
	}

	duration := req.DurationMin
	if duration == 0 {
		duration = s.resolver.DefaultSlotMinutes()
	}
	d := time.Duration(duration) * time.Minute
	if d < MinAppointmentDuration || d > MaxAppointmentDuration {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("duration must be between %v and %v", MinAppointmentDuration, MaxAppointmentDuration), nil)
	}

	priority := model.AppointmentPriority(req.Priority)
	if priority == "" {
		priority = model.AppointmentPriorityRoutine
	}

	return &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		Date:        model.DateOnly(date),
		StartMinute: start,
		DurationMin: duration,
		Type:        model.AppointmentType(req.Type),
		Priority:    priority,
		Reason:      req.Reason,
		Status:      model.AppointmentStatusScheduled,
	}, nil
}

func (s *Service) slotIsOpen(ctx context.Context, apt *model.Appointment) (bool, error) {
	slots, err := s.resolver.GetAvailability(ctx, apt.DoctorID, apt.Date, apt.DurationMin)
	if err != nil {
		return false, err
	}
	want := apt.Slot()
	for _, slot := range slots {
		if slot.Start == want.Start && slot.End == want.End {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Confirm moves a scheduled appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusConfirmed)
}

// MarkNoShow records that the patient never arrived. Only allowed once the
// booked time has passed.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	slotStart := model.DateOnly(apt.Date).Add(time.Duration(apt.StartMinute) * time.Minute)
	if s.now().Before(slotStart) {
		return nil, apperrors.BadRequest("appointment time has not passed yet", nil)
	}

	return s.applyTransition(ctx, apt, model.AppointmentStatusNoShow)
}

// CancelAppointment sets cancelled, records reason and actor, and cascades
// to the queue entry when one exists. Cancelling an already-cancelled
// appointment is a no-op, not an error.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string, actorID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return apt, nil
	}
	if !apt.Status.CanTransition(model.AppointmentStatusCancelled) {
		return nil, apperrors.InvalidTransition(string(apt.Status), string(model.AppointmentStatusCancelled))
	}

	now := s.now()
	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = &reason
	apt.CancelledBy = &actorID
	apt.CancelledAt = &now

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if err := s.cascadeQueueCancel(ctx, apt.ID); err != nil {
		return nil, err
	}

	s.countCancellation()
	s.log.Info("appointment cancelled", "appointment_id", apt.ID, "reason", reason)
	return apt, nil
}

func (s *Service) cascadeQueueCancel(ctx context.Context, appointmentID uuid.UUID) error {
	entry, err := s.queues.GetByAppointment(ctx, appointmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load queue entry: %w", err)
	}
	if entry.Status == model.QueueStatusCancelled {
		return nil
	}
	if err := s.queues.UpdateStatus(ctx, entry.ID, model.QueueStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel queue entry: %w", err)
	}
	return nil
}

// Reschedule never mutates the original appointment's date or time: it
// books a new appointment and cross-links both rows, preserving history.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	old, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !old.Status.CanTransition(model.AppointmentStatusRescheduled) {
		return nil, apperrors.InvalidTransition(string(old.Status), string(model.AppointmentStatusRescheduled))
	}

	replacement, err := s.book(ctx, &model.CreateAppointmentRequest{
		PatientID:   old.PatientID,
		DoctorID:    old.DoctorID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		DurationMin: old.DurationMin,
		Type:        string(old.Type),
		Priority:    string(old.Priority),
		Reason:      old.Reason,
	}, &old.ID)
	if err != nil {
		return nil, err
	}

	old.Status = model.AppointmentStatusRescheduled
	old.RescheduledTo = &replacement.ID
	if err := s.repo.Update(ctx, old); err != nil {
		return nil, fmt.Errorf("failed to close out original appointment: %w", err)
	}

	s.countReschedule()
	s.log.Info("appointment rescheduled", "from", old.ID, "to", replacement.ID)
	return replacement, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, apt, target)
}

func (s *Service) applyTransition(ctx context.Context, apt *model.Appointment, target model.AppointmentStatus) (*model.Appointment, error) {
	if !apt.Status.CanTransition(target) {
		return nil, apperrors.InvalidTransition(string(apt.Status), string(target))
	}
	apt.Status = target
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countSlotConflict() {
	if s.metrics != nil {
		s.metrics.SlotConflicts.Inc()
	}
}

func (s *Service) countCancellation() {
	if s.metrics != nil {
		s.metrics.Cancellations.Inc()
	}
}

func (s *Service) countReschedule() {
	if s.metrics != nil {
		s.metrics.Reschedules.Inc()
	}
}

func (s *Service) observeBookingLatency(d time.Duration) {
	if s.metrics != nil {
		s.metrics.BookingLatency.Observe(d.Seconds())
	}
}
