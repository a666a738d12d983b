package model

import (
	"time"

	"github.com/google/uuid"
)

type QueueStatus string

const (
	QueueStatusWaiting    QueueStatus = "waiting"
	QueueStatusInProgress QueueStatus = "in_progress"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusSkipped    QueueStatus = "skipped"
	QueueStatusCancelled  QueueStatus = "cancelled"
)

// QueueEntry is a checked-in patient's place in one doctor's daily queue.
// queue_number is unique per (doctor_id, date); the unique index is the
// concurrency guard, not an in-process counter. Each appointment owns at
// most one entry.
type QueueEntry struct {
	Base
	AppointmentID uuid.UUID   `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	Date          time.Time   `db:"date" json:"date"`
	QueueNumber   int         `db:"queue_number" json:"queue_number"`
	Status        QueueStatus `db:"status" json:"status"`
}

// QueuePosition is the waiting-line view returned to callers: how many
// waiting entries sit ahead of the given one.
type QueuePosition struct {
	Entry *QueueEntry `json:"entry"`
	Ahead int         `json:"ahead"`
}
