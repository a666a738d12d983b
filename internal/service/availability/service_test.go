package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/repository"
)

type fakeScheduleRepo struct {
	schedules []*model.DoctorSchedule
	onLeave   bool
}

func (f *fakeScheduleRepo) ListSchedules(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]*model.DoctorSchedule, error) {
	var out []*model.DoctorSchedule
	for _, s := range f.schedules {
		if s.DoctorID == doctorID && s.DayOfWeek == dayOfWeek {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) HasApprovedLeave(ctx context.Context, doctorID uuid.UUID, date time.Time) (bool, error) {
	return f.onLeave, nil
}

type fakeAppointmentRepo struct {
	booked []*model.Appointment
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, a *model.Appointment) error { return nil }

func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, a *model.Appointment) error { return nil }

func (f *fakeAppointmentRepo) ListForDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	return f.booked, nil
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return f.booked, nil
}

// Monday 2026-03-02, doctor works 09:00-12:00 with a 10:00-10:30 break.
func testSchedule(doctorID uuid.UUID) *model.DoctorSchedule {
	breakStart := model.MinuteOfDay(600)
	breakEnd := model.MinuteOfDay(630)
	return &model.DoctorSchedule{
		DoctorID:      doctorID,
		DayOfWeek:     1,
		StartMinute:   540,
		EndMinute:     720,
		BreakStart:    &breakStart,
		BreakEnd:      &breakEnd,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var testMonday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestGetAvailabilityFreeDay(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}},
		&fakeAppointmentRepo{},
		30,
	)

	slots, err := svc.GetAvailability(context.Background(), doctorID, testMonday, 30)
	require.NoError(t, err)

	// 09:00-12:00 in 30-minute steps minus the 10:00-10:30 break.
	assert.Equal(t, []model.TimeSlot{
		{Start: 540, End: 570},
		{Start: 570, End: 600},
		{Start: 630, End: 660},
		{Start: 660, End: 690},
		{Start: 690, End: 720},
	}, slots)
}

func TestGetAvailabilitySkipsBookedSlots(t *testing.T) {
	doctorID := uuid.New()
	booked := []*model.Appointment{
		{DoctorID: doctorID, StartMinute: 540, DurationMin: 30, Status: model.AppointmentStatusScheduled},
		{DoctorID: doctorID, StartMinute: 660, DurationMin: 30, Status: model.AppointmentStatusConfirmed},
	}
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}},
		&fakeAppointmentRepo{booked: booked},
		30,
	)

	slots, err := svc.GetAvailability(context.Background(), doctorID, testMonday, 30)
	require.NoError(t, err)

	assert.Equal(t, []model.TimeSlot{
		{Start: 570, End: 600},
		{Start: 630, End: 660},
		{Start: 690, End: 720},
	}, slots)
}

func TestGetAvailabilityLongerDuration(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}},
		&fakeAppointmentRepo{},
		30,
	)

	slots, err := svc.GetAvailability(context.Background(), doctorID, testMonday, 60)
	require.NoError(t, err)

	// 60-minute candidates stepping from 09:00; 09:00-10:00 touches the
	// break start but does not overlap it, 10:00-11:00 does.
	assert.Equal(t, []model.TimeSlot{
		{Start: 540, End: 600},
		{Start: 660, End: 720},
	}, slots)
}

func TestGetAvailabilityNoScheduleThatDay(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}},
		&fakeAppointmentRepo{},
		30,
	)

	tuesday := testMonday.AddDate(0, 0, 1)
	slots, err := svc.GetAvailability(context.Background(), doctorID, tuesday, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailabilityApprovedLeave(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}, onLeave: true},
		&fakeAppointmentRepo{},
		30,
	)

	slots, err := svc.GetAvailability(context.Background(), doctorID, testMonday, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailabilityDefaultsDuration(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.DoctorSchedule{testSchedule(doctorID)}},
		&fakeAppointmentRepo{},
		45,
	)

	slots, err := svc.GetAvailability(context.Background(), doctorID, testMonday, 0)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, model.MinuteOfDay(45), slots[0].End-slots[0].Start)
}
