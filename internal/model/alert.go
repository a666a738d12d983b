package model

import (
	"time"

	"github.com/google/uuid"
)

type AlertSeverity string

const (
	AlertSeverityWarning   AlertSeverity = "warning"
	AlertSeverityCritical  AlertSeverity = "critical"
	AlertSeverityEmergency AlertSeverity = "emergency"
)

// CriticalAlert is a dispatched, acknowledgeable record raised when an
// observation crosses a critical threshold. observation_id is unique so a
// retried write can never double-alert. Alerts are never deleted; the
// terminal state is acknowledged and resolved.
type CriticalAlert struct {
	Base
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	ObservationID  uuid.UUID     `db:"observation_id" json:"observation_id"`
	Severity       AlertSeverity `db:"severity" json:"severity"`
	Message        string        `db:"message" json:"message"`
	AcknowledgedAt *time.Time    `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	AcknowledgedBy *uuid.UUID    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID    `db:"resolved_by" json:"resolved_by,omitempty"`
}

// IsOpen reports whether the alert still needs staff action.
func (a *CriticalAlert) IsOpen() bool {
	return a.AcknowledgedAt == nil || a.ResolvedAt == nil
}

type AlertActionRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

type AlertFilters struct {
	Pagination
	PatientID uuid.UUID
	Severity  AlertSeverity
	OpenOnly  bool
}

// AlertNotification is the payload forwarded to the notification
// collaborator when an alert is raised.
type AlertNotification struct {
	AlertID   uuid.UUID     `json:"alert_id"`
	PatientID uuid.UUID     `json:"patient_id"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	RaisedAt  time.Time     `json:"raised_at"`
}
