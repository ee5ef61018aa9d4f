package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

type UpdateAppointment struct {
	repo     domain.Repository
	locker   lock.Locker
	audit    *audit.Dispatcher
	settings Settings
}

func NewUpdateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	audit *audit.Dispatcher,
	settings Settings,
) *UpdateAppointment {
	return &UpdateAppointment{
		repo:     repo,
		locker:   locker,
		audit:    audit,
		settings: settings,
	}
}

// Execute merges patch into the stored appointment. Status changes
// (cancel, complete) go through here as well.
func (uc *UpdateAppointment) Execute(
	ctx context.Context,
	actor string,
	barberID string,
	appointmentID string,
	patch domain.Patch,
) (*models.Appointment, error) {

	unlock, err := uc.locker.Lock(ctx, lock.BarberKey(barberID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, barberID, appointmentID)
	if err != nil {
		return nil, storeErr(err, domain.ErrAppointmentNotFound)
	}

	if patch.Empty() {
		return ap, nil
	}

	previous := domain.Status(ap.Status)
	domain.ApplyPatch(ap, patch)

	// --------------------------------------------------
	// Service reference
	// --------------------------------------------------
	if patch.ServiceID != nil && *patch.ServiceID != "" {
		svc, err := uc.repo.GetService(ctx, *patch.ServiceID)
		if err != nil {
			return nil, storeErr(err, domain.ErrServiceNotFound)
		}
		if patch.Service == nil || *patch.Service == "" {
			ap.Service = svc.Name
		}
	}

	// --------------------------------------------------
	// Validation
	// --------------------------------------------------
	status := domain.Status(ap.Status)
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if !domain.IntervalOf(ap).Valid() {
		return nil, domain.ErrInvalidTimeRange
	}

	if uc.settings.EnforcePolicy && (patch.ChangesTime() || patch.ChangesStatus()) {
		if err := domain.ValidateSchedule(status, ap.StartTime, uc.settings.now()); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, storeErr(err, domain.ErrAppointmentNotFound)
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    actor,
		Action:   updateAction(previous, status),
		Entity:   "appointment",
		EntityID: ap.AppointmentID,
		Metadata: patch,
	})

	return ap, nil
}

func updateAction(from, to domain.Status) string {
	if from == to {
		return "appointment_updated"
	}
	switch to {
	case domain.StatusCancelled:
		return "appointment_cancelled"
	case domain.StatusCompleted:
		return "appointment_completed"
	}
	return "appointment_updated"
}
