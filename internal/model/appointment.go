package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn   AppointmentStatus = "checked_in"
	AppointmentStatusInProgress  AppointmentStatus = "in_progress"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// appointmentTransitions is the single authoritative edge set of the
// appointment state machine. Anything not listed here is rejected.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCheckedIn,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusCheckedIn,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusCheckedIn: {
		AppointmentStatusInProgress,
		AppointmentStatusCancelled,
	},
	AppointmentStatusInProgress: {
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	},
}

// CanTransition reports whether moving from s to target is a legal edge.
func (s AppointmentStatus) CanTransition(target AppointmentStatus) bool {
	for _, t := range appointmentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

type AppointmentType string

const (
	AppointmentTypeRegular   AppointmentType = "regular"
	AppointmentTypeFollowup  AppointmentType = "followup"
	AppointmentTypeEmergency AppointmentType = "emergency"
)

type AppointmentPriority string

const (
	AppointmentPriorityRoutine AppointmentPriority = "routine"
	AppointmentPriorityUrgent  AppointmentPriority = "urgent"
)

// Appointment is one booked slot. Rows are never deleted: cancellation is a
// status so the history survives, and the partial unique index on
// (doctor_id, date, start_minute) over non-cancelled rows is the
// authoritative double-booking guard.
type Appointment struct {
	Base
	PatientID       uuid.UUID           `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID           `db:"doctor_id" json:"doctor_id"`
	Date            time.Time           `db:"date" json:"date"`
	StartMinute     MinuteOfDay         `db:"start_minute" json:"start_minute"`
	DurationMin     int                 `db:"duration_min" json:"duration_min"`
	Type            AppointmentType     `db:"type" json:"type"`
	Priority        AppointmentPriority `db:"priority" json:"priority"`
	Reason          string              `db:"reason" json:"reason,omitempty"`
	Status          AppointmentStatus   `db:"status" json:"status"`
	RescheduledFrom *uuid.UUID          `db:"rescheduled_from" json:"rescheduled_from,omitempty"`
	RescheduledTo   *uuid.UUID          `db:"rescheduled_to" json:"rescheduled_to,omitempty"`
	CancelReason    *string             `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy     *uuid.UUID          `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time          `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// Slot returns the booked interval of the appointment.
func (a *Appointment) Slot() TimeSlot {
	return TimeSlot{Start: a.StartMinute, End: a.StartMinute + MinuteOfDay(a.DurationMin)}
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	Date        string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime   string    `json:"start_time" binding:"required"`
	DurationMin int       `json:"duration_min" binding:"omitempty,min=5,max=240"`
	Type        string    `json:"type" binding:"required,oneof=regular followup emergency"`
	Priority    string    `json:"priority" binding:"omitempty,oneof=routine urgent"`
	Reason      string    `json:"reason" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason  string    `json:"reason" binding:"required,max=1000"`
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

type RescheduleAppointmentRequest struct {
	Date      string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" binding:"required"`
	ActorID   uuid.UUID `json:"actor_id" binding:"required"`
}

type AppointmentFilters struct {
	Pagination
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	Date      time.Time
}
