package appointment

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// BusinessHours is the shop-wide booking grid.
type BusinessHours struct {
	StartHour           int            `json:"startHour"`
	EndHour             int            `json:"endHour"`
	SlotIntervalMinutes int            `json:"slotIntervalMinutes"`
	OpenDays            []time.Weekday `json:"openDays"`
	MaxBookingDaysAhead int            `json:"maxBookingDaysAhead"`
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		StartHour:           9,
		EndHour:             17,
		SlotIntervalMinutes: 30,
		OpenDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		MaxBookingDaysAhead: 60,
	}
}

func (h BusinessHours) Validate() error {
	if h.StartHour < 0 || h.EndHour > 24 || h.StartHour >= h.EndHour {
		return fmt.Errorf("business hours: start %d must be before end %d within 0..24", h.StartHour, h.EndHour)
	}
	if h.SlotIntervalMinutes <= 0 {
		return errors.New("business hours: slot interval must be positive")
	}
	if h.MaxBookingDaysAhead < 0 {
		return errors.New("business hours: max booking days ahead must not be negative")
	}
	for _, d := range h.OpenDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("business hours: invalid weekday %d", d)
		}
	}
	return nil
}

// GenerateTimeSlots lists "HH:MM" slot starts from opening to closing.
// A slot that would run past closing is left out.
func GenerateTimeSlots(h BusinessHours) []string {
	if h.SlotIntervalMinutes <= 0 {
		return []string{}
	}

	start := h.StartHour * 60
	end := h.EndHour * 60

	slots := make([]string, 0, (end-start)/h.SlotIntervalMinutes)
	for m := start; m+h.SlotIntervalMinutes <= end; m += h.SlotIntervalMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

func IsBusinessDay(h BusinessHours, date time.Time) bool {
	return slices.Contains(h.OpenDays, date.Weekday())
}

// IsBookableDate checks the open-days set and the window
// [today, today+MaxBookingDaysAhead], compared as calendar days in now's
// location.
func IsBookableDate(h BusinessHours, date, now time.Time) bool {
	loc := now.Location()
	day := StartOfDay(date.In(loc))
	if !IsBusinessDay(h, day) {
		return false
	}

	today := StartOfDay(now)
	last := today.AddDate(0, 0, h.MaxBookingDaysAhead)

	return !day.Before(today) && !day.After(last)
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns [00:00, next 00:00) for the calendar day of t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// At places an "HH:MM" slot on the calendar day of date.
func At(date time.Time, hm string) (time.Time, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		date.Location(),
	), nil
}
