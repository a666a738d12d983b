package model

import (
	"time"

	"github.com/google/uuid"
)

type ObservationKind string

const (
	ObservationKindVital ObservationKind = "vital"
	ObservationKindLab   ObservationKind = "lab"
)

// Observation is one recorded vital sign or lab result. Rows are immutable:
// corrections are new rows, never in-place edits.
type Observation struct {
	Base
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	Kind        ObservationKind `db:"kind" json:"kind"`
	Parameter   string          `db:"parameter" json:"parameter"`
	Value       float64         `db:"value" json:"value"`
	Unit        string          `db:"unit" json:"unit"`
	RecordedAt  time.Time       `db:"recorded_at" json:"recorded_at"`
	RecorderID  uuid.UUID       `db:"recorder_id" json:"recorder_id"`
	NeedsReview bool            `db:"needs_review" json:"needs_review"`
}

// Verdict is the outcome of evaluating an observation against its
// reference-range bucket.
type Verdict string

const (
	VerdictNormal       Verdict = "normal"
	VerdictLow          Verdict = "low"
	VerdictHigh         Verdict = "high"
	VerdictCriticalLow  Verdict = "critical_low"
	VerdictCriticalHigh Verdict = "critical_high"
	VerdictNotEvaluable Verdict = "not_evaluable"
)

// IsCritical reports whether the verdict must raise an alert.
func (v Verdict) IsCritical() bool {
	return v == VerdictCriticalLow || v == VerdictCriticalHigh
}

type RecordObservationRequest struct {
	PatientID  uuid.UUID `json:"patient_id" binding:"required"`
	Kind       string    `json:"kind" binding:"required,oneof=vital lab"`
	Parameter  string    `json:"parameter" binding:"required,max=100"`
	Value      float64   `json:"value" binding:"required"`
	Unit       string    `json:"unit" binding:"required,max=30"`
	RecorderID uuid.UUID `json:"recorder_id" binding:"required"`
	RecordedAt time.Time `json:"recorded_at"`

	// Needed to resolve the reference-range bucket.
	PatientAgeYears float64 `json:"patient_age_years" binding:"min=0"`
	PatientGender   string  `json:"patient_gender" binding:"omitempty,oneof=male female other"`
}

// ObservationResult is the write-path response: the stored row, the verdict,
// and the alert raised for critical values, if any.
type ObservationResult struct {
	Observation *Observation `json:"observation"`
	Verdict     Verdict      `json:"verdict"`
	AlertID     *uuid.UUID   `json:"alert_id,omitempty"`
}
