package appointment

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

type Repository interface {
	// -------- Barber / Service --------
	GetBarber(
		ctx context.Context,
		barberID string,
	) (*models.Barber, error)

	GetService(
		ctx context.Context,
		serviceID string,
	) (*models.Service, error)

	// -------- Appointment --------
	ListAppointments(
		ctx context.Context,
		barberID string,
		filter storage.AppointmentFilter,
	) ([]models.Appointment, error)

	GetAppointment(
		ctx context.Context,
		barberID string,
		appointmentID string,
	) (*models.Appointment, error)

	// conflict-checked writes
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	DeleteAppointment(
		ctx context.Context,
		barberID string,
		appointmentID string,
	) error
}
