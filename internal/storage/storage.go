package storage

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrConflict      = errors.New("storage: overlapping appointment")
	ErrAlreadyExists = errors.New("storage: already exists")
)

// AppointmentFilter bounds appointments by StartTime, both ends inclusive.
// EndAfter keeps only appointments still running after that instant.
type AppointmentFilter struct {
	StartFrom *int64
	StartTo   *int64
	EndAfter  *int64
}

func (f AppointmentFilter) Match(ap *models.Appointment) bool {
	if f.StartFrom != nil && ap.StartTime < *f.StartFrom {
		return false
	}
	if f.StartTo != nil && ap.StartTime > *f.StartTo {
		return false
	}
	if f.EndAfter != nil && ap.EndTime <= *f.EndAfter {
		return false
	}
	return true
}

type BarberStore interface {
	ListBarbers(ctx context.Context) ([]models.Barber, error)
	GetBarber(ctx context.Context, barberID string) (*models.Barber, error)
	CreateBarber(ctx context.Context, b *models.Barber) error
	UpdateBarber(ctx context.Context, b *models.Barber) error
	DeleteBarber(ctx context.Context, barberID string) error
}

type ServiceStore interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, serviceID string) (*models.Service, error)
	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error
	DeleteService(ctx context.Context, serviceID string) error
}

// AppointmentStore writes are conditional: CreateAppointment and
// UpdateAppointment return ErrConflict instead of persisting an
// appointment that overlaps another non-cancelled appointment of the same
// barber.
type AppointmentStore interface {
	ListAppointments(ctx context.Context, barberID string, f AppointmentFilter) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, barberID, appointmentID string) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, ap *models.Appointment) error
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error
	DeleteAppointment(ctx context.Context, barberID, appointmentID string) error
}

type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
}

type Store interface {
	BarberStore
	ServiceStore
	AppointmentStore
	UserStore

	Close() error
}
