package dto

type AvailabilityDTO struct {
	BarberID        string   `json:"barberId"`
	Date            string   `json:"date"`
	ServiceID       string   `json:"serviceId,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	Bookable        bool     `json:"bookable"`
	Slots           []string `json:"slots"`
}

type BusinessHoursDTO struct {
	StartHour           int      `json:"startHour"`
	EndHour             int      `json:"endHour"`
	SlotIntervalMinutes int      `json:"slotIntervalMinutes"`
	OpenDays            []int    `json:"openDays"`
	MaxBookingDaysAhead int      `json:"maxBookingDaysAhead"`
	Timezone            string   `json:"timezone"`
	Slots               []string `json:"slots"`
}
