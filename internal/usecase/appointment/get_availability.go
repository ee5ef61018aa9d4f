package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

type GetAvailability struct {
	repo     domain.Repository
	settings Settings
}

func NewGetAvailability(repo domain.Repository, settings Settings) *GetAvailability {
	return &GetAvailability{repo: repo, settings: settings}
}

// Execute computes the open slots of a barber on date (YYYY-MM-DD, in the
// business timezone). Without a service the slot interval is used as the
// duration.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	barberID string,
	date string,
	serviceID string,
) (*dto.AvailabilityDTO, error) {

	day, err := timezone.ParseDate(date, uc.settings.location())
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	if _, err := uc.repo.GetBarber(ctx, barberID); err != nil {
		return nil, storeErr(err, domain.ErrBarberNotFound)
	}

	duration := uc.settings.Hours.SlotIntervalMinutes
	if serviceID != "" {
		svc, err := uc.repo.GetService(ctx, serviceID)
		if err != nil {
			return nil, storeErr(err, domain.ErrServiceNotFound)
		}
		if svc.DurationMinutes > 0 {
			duration = svc.DurationMinutes
		}
	}

	out := &dto.AvailabilityDTO{
		BarberID:        barberID,
		Date:            date,
		ServiceID:       serviceID,
		DurationMinutes: duration,
		Slots:           []string{},
	}

	now := uc.settings.now()
	if !domain.IsBookableDate(uc.settings.Hours, day, now) {
		return out, nil
	}
	out.Bookable = true

	// --------------------------------------------------
	// Appointments touching the day: starting before it ends
	// and still running after it starts.
	// --------------------------------------------------
	dayStart, dayEnd := domain.DayBounds(day)
	endAfter := dayStart.UnixMilli()
	to := dayEnd.UnixMilli() - 1

	apps, err := uc.repo.ListAppointments(ctx, barberID, storage.AppointmentFilter{
		StartTo:  &to,
		EndAfter: &endAfter,
	})
	if err != nil {
		return nil, err
	}

	out.Slots = domain.AvailableSlots(domain.AvailabilityInput{
		Hours:           uc.settings.Hours,
		Date:            day,
		DurationMinutes: duration,
		Appointments:    apps,
		Now:             now,
	})

	return out, nil
}
