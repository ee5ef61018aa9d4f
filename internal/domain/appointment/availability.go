package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type AvailabilityInput struct {
	Hours BusinessHours

	// Date is any instant on the requested day, in the business location.
	Date time.Time

	DurationMinutes int

	// Appointments of the barber around Date; cancelled ones are ignored.
	Appointments []models.Appointment

	// Slots starting before Now are dropped. Zero disables the check.
	Now time.Time
}

// AvailableSlots filters the day's slot grid down to the starts where a
// service of DurationMinutes does not overlap a blocking appointment. A
// slot may run past closing, the same as a booking made directly.
func AvailableSlots(in AvailabilityInput) []string {
	duration := in.DurationMinutes
	if duration <= 0 {
		duration = in.Hours.SlotIntervalMinutes
	}
	length := time.Duration(duration) * time.Minute

	day := StartOfDay(in.Date)

	out := []string{}
	for _, hm := range GenerateTimeSlots(in.Hours) {
		start, err := At(day, hm)
		if err != nil {
			continue
		}
		end := start.Add(length)

		if !in.Now.IsZero() && start.Before(in.Now) {
			continue
		}

		slot := Interval{Start: start.UnixMilli(), End: end.UnixMilli()}
		if FindConflict(in.Appointments, slot, "") != nil {
			continue
		}

		out = append(out, hm)
	}
	return out
}
