package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(
	repo domain.Repository,
) *ListAppointments {
	return &ListAppointments{
		repo: repo,
	}
}

// Execute lists a barber's appointments ordered by start time. startDate
// and endDate are optional inclusive bounds on StartTime.
func (uc *ListAppointments) Execute(
	ctx context.Context,
	barberID string,
	startDate *int64,
	endDate *int64,
) ([]models.Appointment, error) {

	apps, err := uc.repo.ListAppointments(ctx, barberID, storage.AppointmentFilter{
		StartFrom: startDate,
		StartTo:   endDate,
	})
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Appointment{}
	}
	return apps, nil
}

type GetAppointment struct {
	repo domain.Repository
}

func NewGetAppointment(repo domain.Repository) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(
	ctx context.Context,
	barberID string,
	appointmentID string,
) (*models.Appointment, error) {

	ap, err := uc.repo.GetAppointment(ctx, barberID, appointmentID)
	if err != nil {
		return nil, storeErr(err, domain.ErrAppointmentNotFound)
	}
	return ap, nil
}
