package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DoctorSchedule is one weekly working window for a doctor. A doctor can
// have several rows per weekday with disjoint effective windows; the row
// whose effective range covers the requested date wins.
type DoctorSchedule struct {
	Base
	DoctorID       uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek      int          `db:"day_of_week" json:"day_of_week"`
	StartMinute    MinuteOfDay  `db:"start_minute" json:"start_minute"`
	EndMinute      MinuteOfDay  `db:"end_minute" json:"end_minute"`
	BreakStart     *MinuteOfDay `db:"break_start" json:"break_start,omitempty"`
	BreakEnd       *MinuteOfDay `db:"break_end" json:"break_end,omitempty"`
	EffectiveFrom  time.Time    `db:"effective_from" json:"effective_from"`
	EffectiveUntil *time.Time   `db:"effective_until" json:"effective_until,omitempty"`
}

// Validate enforces the schedule invariants: end after start, break (when
// present) fully inside the working window.
func (s *DoctorSchedule) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0-6, got %d", s.DayOfWeek)
	}
	if s.EndMinute <= s.StartMinute {
		return fmt.Errorf("schedule end %s must be after start %s", s.EndMinute, s.StartMinute)
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return fmt.Errorf("break window must define both start and end")
	}
	if s.BreakStart != nil {
		if *s.BreakEnd <= *s.BreakStart {
			return fmt.Errorf("break end %s must be after break start %s", *s.BreakEnd, *s.BreakStart)
		}
		if *s.BreakStart < s.StartMinute || *s.BreakEnd > s.EndMinute {
			return fmt.Errorf("break window must lie within the working window")
		}
	}
	return nil
}

// Covers reports whether this schedule row is effective on the given date.
func (s *DoctorSchedule) Covers(date time.Time) bool {
	d := DateOnly(date)
	if int(d.Weekday()) != s.DayOfWeek {
		return false
	}
	if d.Before(DateOnly(s.EffectiveFrom)) {
		return false
	}
	if s.EffectiveUntil != nil && d.After(DateOnly(*s.EffectiveUntil)) {
		return false
	}
	return true
}

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// DoctorLeave blocks a doctor's availability for a date range once approved.
type DoctorLeave struct {
	Base
	DoctorID  uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	StartDate time.Time   `db:"start_date" json:"start_date"`
	EndDate   time.Time   `db:"end_date" json:"end_date"`
	Reason    string      `db:"reason" json:"reason,omitempty"`
	Status    LeaveStatus `db:"status" json:"status"`
}

func (l *DoctorLeave) Validate() error {
	if DateOnly(l.EndDate).Before(DateOnly(l.StartDate)) {
		return fmt.Errorf("leave end date must not precede start date")
	}
	return nil
}

// TimeSlot is a half-open [Start, End) interval within one day.
type TimeSlot struct {
	Start MinuteOfDay `json:"start_minute"`
	End   MinuteOfDay `json:"end_minute"`
}

func (t TimeSlot) Overlaps(other TimeSlot) bool {
	return t.Start < other.End && other.Start < t.End
}
