package appointment

import "github.com/BruksfildServices01/barber-agenda/internal/models"

// Interval is a half-open [Start, End) range in epoch milliseconds.
type Interval struct {
	Start int64
	End   int64
}

func IntervalOf(ap *models.Appointment) Interval {
	return Interval{Start: ap.StartTime, End: ap.EndTime}
}

func (i Interval) Valid() bool {
	return i.End > i.Start
}

// Overlaps is true when the ranges share at least one instant; a range
// ending exactly where the other begins does not overlap it.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// FindConflict returns the first blocking appointment overlapping
// candidate, skipping the appointment identified by excludeID.
func FindConflict(existing []models.Appointment, candidate Interval, excludeID string) *models.Appointment {
	for i := range existing {
		ap := &existing[i]
		if excludeID != "" && ap.AppointmentID == excludeID {
			continue
		}
		if !Blocks(ap) {
			continue
		}
		if Overlaps(IntervalOf(ap), candidate) {
			return ap
		}
	}
	return nil
}
