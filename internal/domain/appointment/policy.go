package appointment

import "time"

// ValidateSchedule is the booking-time policy shared by every mutating
// endpoint: nothing may be scheduled in the past and nothing may be
// completed before it starts.
func ValidateSchedule(status Status, startTime int64, now time.Time) error {
	nowMs := now.UnixMilli()

	switch status {
	case StatusScheduled:
		if startTime < nowMs {
			return ErrInPast
		}
	case StatusCompleted:
		if startTime > nowMs {
			return ErrCompletedBeforeStart
		}
	}
	return nil
}
