package appointment

import "github.com/BruksfildServices01/barber-agenda/internal/models"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func InitialStatus() Status {
	return StatusScheduled
}

// Blocks reports whether ap occupies its time range. Cancelled
// appointments never take part in conflict checks.
func Blocks(ap *models.Appointment) bool {
	return Status(ap.Status) != StatusCancelled
}
