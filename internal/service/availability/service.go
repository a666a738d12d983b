package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
	apperrors "github.com/meditrax/clinical-core/pkg/errors"
)

// Service computes free slots for a doctor on a date from the weekly
// schedule, approved leave and existing bookings. It is read-only: both the
// client-facing availability endpoint and the booking pre-check call it,
// and the booking path never trusts it as the final word; the storage
// constraint is the authoritative guard.
type Service struct {
	schedules      repository.ScheduleRepository
	appointments   repository.AppointmentRepository
	defaultSlotMin int
}

func NewService(schedules repository.ScheduleRepository, appointments repository.AppointmentRepository, defaultSlotMin int) *Service {
	if defaultSlotMin <= 0 {
		defaultSlotMin = 30
	}
	return &Service{
		schedules:      schedules,
		appointments:   appointments,
		defaultSlotMin: defaultSlotMin,
	}
}

// DefaultSlotMinutes returns the facility-wide slot size.
func (s *Service) DefaultSlotMinutes() int {
	return s.defaultSlotMin
}

// GetAvailability returns the ordered free slots of the given duration for
// the doctor on the date. A doctor with no schedule coverage that day gets
// an empty list, not an error.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, durationMin int) ([]model.TimeSlot, error) {
	if durationMin == 0 {
		durationMin = s.defaultSlotMin
	}
	if durationMin < 0 {
		return nil, apperrors.BadRequest("duration must be positive", nil)
	}

	schedule, err := s.scheduleFor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return []model.TimeSlot{}, nil
	}

	onLeave, err := s.schedules.HasApprovedLeave(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check leave: %w", err)
	}
	if onLeave {
		return []model.TimeSlot{}, nil
	}

	booked, err := s.appointments.ListForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing bookings: %w", err)
	}

	return freeSlots(schedule, booked, durationMin), nil
}

// scheduleFor picks the schedule row whose effective window covers the
// date, or nil when the doctor has no coverage that day.
func (s *Service) scheduleFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.DoctorSchedule, error) {
	rows, err := s.schedules.ListSchedules(ctx, doctorID, int(model.DateOnly(date).Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	for _, row := range rows {
		if row.Covers(date) {
			return row, nil
		}
	}
	return nil, nil
}

// freeSlots cuts the working day into duration-sized candidates and drops
// the ones overlapping the break window or a live booking.
func freeSlots(schedule *model.DoctorSchedule, booked []*model.Appointment, durationMin int) []model.TimeSlot {
	step := model.MinuteOfDay(durationMin)
	slots := []model.TimeSlot{}

	for start := schedule.StartMinute; start+step <= schedule.EndMinute; start += step {
		candidate := model.TimeSlot{Start: start, End: start + step}

		if schedule.BreakStart != nil {
			breakSlot := model.TimeSlot{Start: *schedule.BreakStart, End: *schedule.BreakEnd}
			if candidate.Overlaps(breakSlot) {
				continue
			}
		}

		taken := false
		for _, apt := range booked {
			if candidate.Overlaps(apt.Slot()) {
				taken = true
				break
			}
		}
		if taken {
			continue
		}

		slots = append(slots, candidate)
	}
	return slots
}
