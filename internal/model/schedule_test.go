package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minutePtr(m MinuteOfDay) *MinuteOfDay { return &m }

func TestScheduleValidate(t *testing.T) {
	valid := &DoctorSchedule{
		DayOfWeek:   1,
		StartMinute: 540,
		EndMinute:   720,
		BreakStart:  minutePtr(600),
		BreakEnd:    minutePtr(630),
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&DoctorSchedule{DayOfWeek: 7, StartMinute: 540, EndMinute: 720}).Validate())
	assert.Error(t, (&DoctorSchedule{DayOfWeek: 1, StartMinute: 720, EndMinute: 540}).Validate())
	assert.Error(t, (&DoctorSchedule{
		DayOfWeek: 1, StartMinute: 540, EndMinute: 720,
		BreakStart: minutePtr(600),
	}).Validate(), "break without end")
	assert.Error(t, (&DoctorSchedule{
		DayOfWeek: 1, StartMinute: 540, EndMinute: 720,
		BreakStart: minutePtr(480), BreakEnd: minutePtr(600),
	}).Validate(), "break before working window")
}

func TestScheduleCovers(t *testing.T) {
	until := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	s := &DoctorSchedule{
		DayOfWeek:      1, // Monday
		StartMinute:    540,
		EndMinute:      720,
		EffectiveFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EffectiveUntil: &until,
	}

	monday := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())

	assert.True(t, s.Covers(monday))
	assert.False(t, s.Covers(monday.AddDate(0, 0, 1)), "tuesday")
	assert.False(t, s.Covers(time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)), "before effective_from")
	assert.False(t, s.Covers(time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)), "after effective_until")
}

func TestTimeSlotOverlaps(t *testing.T) {
	base := TimeSlot{Start: 540, End: 570}

	assert.True(t, base.Overlaps(TimeSlot{Start: 560, End: 590}))
	assert.True(t, base.Overlaps(TimeSlot{Start: 530, End: 545}))
	assert.True(t, base.Overlaps(TimeSlot{Start: 540, End: 570}))

	// Half-open: touching intervals do not overlap.
	assert.False(t, base.Overlaps(TimeSlot{Start: 570, End: 600}))
	assert.False(t, base.Overlaps(TimeSlot{Start: 510, End: 540}))
}

func TestParseMinuteOfDay(t *testing.T) {
	m, err := ParseMinuteOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, MinuteOfDay(570), m)
	assert.Equal(t, "09:30", m.String())

	_, err = ParseMinuteOfDay("24:00")
	assert.Error(t, err)
	_, err = ParseMinuteOfDay("nonsense")
	assert.Error(t, err)
}

func TestBucketsFor(t *testing.T) {
	assert.Equal(t, []Bucket{BucketInfant, BucketDefault}, BucketsFor(0.5, GenderFemale))
	assert.Equal(t, []Bucket{BucketChild, BucketDefault}, BucketsFor(5, GenderMale))
	assert.Equal(t, []Bucket{BucketAdultMale, BucketDefault}, BucketsFor(40, GenderMale))
	assert.Equal(t, []Bucket{BucketAdultFemale, BucketDefault}, BucketsFor(40, GenderFemale))
	assert.Equal(t, []Bucket{BucketDefault}, BucketsFor(40, GenderOther))

	// Age boundaries: exactly one year is a child, exactly eighteen an adult.
	assert.Equal(t, []Bucket{BucketChild, BucketDefault}, BucketsFor(1, GenderMale))
	assert.Equal(t, []Bucket{BucketAdultMale, BucketDefault}, BucketsFor(18, GenderMale))
}
