package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	Actor    string
	BarberID string

	CustomerName  string
	CustomerPhone string

	StartTime int64
	EndTime   int64

	Service   string
	ServiceID string
	Notes     string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo     domain.Repository
	locker   lock.Locker
	audit    *audit.Dispatcher
	settings Settings
}

func NewCreateAppointment(
	repo domain.Repository,
	locker lock.Locker,
	audit *audit.Dispatcher,
	settings Settings,
) *CreateAppointment {
	return &CreateAppointment{
		repo:     repo,
		locker:   locker,
		audit:    audit,
		settings: settings,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// Required fields
	// --------------------------------------------------
	name := strings.TrimSpace(in.CustomerName)
	if name == "" || in.StartTime <= 0 {
		return nil, domain.ErrValidation
	}
	if in.EndTime <= 0 && in.ServiceID == "" {
		return nil, domain.ErrValidation
	}

	// --------------------------------------------------
	// Barber
	// --------------------------------------------------
	if _, err := uc.repo.GetBarber(ctx, in.BarberID); err != nil {
		return nil, storeErr(err, domain.ErrBarberNotFound)
	}

	ap := &models.Appointment{
		AppointmentID: uuid.NewString(),
		BarberID:      in.BarberID,
		CustomerName:  name,
		CustomerPhone: in.CustomerPhone,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Service:       in.Service,
		ServiceID:     in.ServiceID,
		Notes:         in.Notes,
		Status:        string(domain.InitialStatus()),
	}

	// --------------------------------------------------
	// Service: fills the end time and title when missing
	// --------------------------------------------------
	if in.ServiceID != "" {
		svc, err := uc.repo.GetService(ctx, in.ServiceID)
		if err != nil {
			return nil, storeErr(err, domain.ErrServiceNotFound)
		}
		if ap.EndTime <= 0 {
			ap.EndTime = ap.StartTime + (time.Duration(svc.DurationMinutes) * time.Minute).Milliseconds()
		}
		if ap.Service == "" {
			ap.Service = svc.Name
		}
	}
	if ap.Service == "" {
		ap.Service = models.DefaultServiceTitle
	}

	if !domain.IntervalOf(ap).Valid() {
		return nil, domain.ErrInvalidTimeRange
	}

	// --------------------------------------------------
	// Booking policy
	// --------------------------------------------------
	if uc.settings.EnforcePolicy {
		if err := domain.ValidateSchedule(domain.Status(ap.Status), ap.StartTime, uc.settings.now()); err != nil {
			return nil, err
		}
	}

	// --------------------------------------------------
	// Conflict-checked insert
	// --------------------------------------------------
	unlock, err := uc.locker.Lock(ctx, lock.BarberKey(in.BarberID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		return nil, storeErr(err, domain.ErrBarberNotFound)
	}

	// --------------------------------------------------
	// Audit
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		Actor:    in.Actor,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: ap.AppointmentID,
		Metadata: map[string]any{
			"barberId":  ap.BarberID,
			"startTime": ap.StartTime,
			"endTime":   ap.EndTime,
		},
	})

	return ap, nil
}
