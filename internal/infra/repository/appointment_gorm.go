package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

const (
	sqlStateExclusionViolation = "23P01"
	sqlStateUniqueViolation    = "23505"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// IsExclusionConflict reports whether err comes from the
// appointments_no_overlap exclusion constraint.
func IsExclusionConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateExclusionViolation
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

// mapErr translates gorm and Postgres errors into storage sentinels.
func mapErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case IsExclusionConflict(err):
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	case isUniqueViolation(err), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func affected(what string, res *gorm.DB) error {
	if res.Error != nil {
		return mapErr(what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

// --------------------------------------------------
// Barber
// --------------------------------------------------

func (r *GormStore) ListBarbers(ctx context.Context) ([]models.Barber, error) {
	barbers := []models.Barber{}
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&barbers).Error; err != nil {
		return nil, mapErr("list barbers", err)
	}
	return barbers, nil
}

func (r *GormStore) GetBarber(
	ctx context.Context,
	barberID string,
) (*models.Barber, error) {

	var b models.Barber
	if err := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		First(&b).Error; err != nil {
		return nil, mapErr("barber "+barberID, err)
	}
	return &b, nil
}

func (r *GormStore) CreateBarber(ctx context.Context, b *models.Barber) error {
	return mapErr("barber "+b.BarberID, r.db.WithContext(ctx).Create(b).Error)
}

func (r *GormStore) UpdateBarber(ctx context.Context, b *models.Barber) error {
	res := r.db.WithContext(ctx).
		Model(&models.Barber{}).
		Where("barber_id = ?", b.BarberID).
		Updates(map[string]any{
			"name":        b.Name,
			"service_ids": b.ServiceIDs,
			"rating":      b.Rating,
			"photo_url":   b.PhotoURL,
		})
	return affected("barber "+b.BarberID, res)
}

func (r *GormStore) DeleteBarber(ctx context.Context, barberID string) error {
	res := r.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Delete(&models.Barber{})
	return affected("barber "+barberID, res)
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *GormStore) ListServices(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&services).Error; err != nil {
		return nil, mapErr("list services", err)
	}
	return services, nil
}

func (r *GormStore) GetService(
	ctx context.Context,
	serviceID string,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		First(&svc).Error; err != nil {
		return nil, mapErr("service "+serviceID, err)
	}
	return &svc, nil
}

func (r *GormStore) CreateService(ctx context.Context, svc *models.Service) error {
	return mapErr("service "+svc.ServiceID, r.db.WithContext(ctx).Create(svc).Error)
}

func (r *GormStore) UpdateService(ctx context.Context, svc *models.Service) error {
	res := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("service_id = ?", svc.ServiceID).
		Updates(map[string]any{
			"name":             svc.Name,
			"description":      svc.Description,
			"price":            svc.Price,
			"duration_minutes": svc.DurationMinutes,
		})
	return affected("service "+svc.ServiceID, res)
}

func (r *GormStore) DeleteService(ctx context.Context, serviceID string) error {
	res := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Delete(&models.Service{})
	return affected("service "+serviceID, res)
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *GormStore) ListAppointments(
	ctx context.Context,
	barberID string,
	filter storage.AppointmentFilter,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).Where("barber_id = ?", barberID)
	if filter.StartFrom != nil {
		q = q.Where("start_time >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		q = q.Where("start_time <= ?", *filter.StartTo)
	}
	if filter.EndAfter != nil {
		q = q.Where("end_time > ?", *filter.EndAfter)
	}

	apps := []models.Appointment{}
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, mapErr("list appointments", err)
	}
	return apps, nil
}

func (r *GormStore) GetAppointment(
	ctx context.Context,
	barberID string,
	appointmentID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ? AND barber_id = ?", appointmentID, barberID).
		First(&ap).Error; err != nil {
		return nil, mapErr("appointment "+appointmentID, err)
	}
	return &ap, nil
}

func (r *GormStore) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBarber(tx, ap.BarberID); err != nil {
			return err
		}
		if err := assertNoTimeConflict(tx, ap); err != nil {
			return err
		}
		return mapErr("appointment "+ap.AppointmentID, tx.Create(ap).Error)
	})
}

func (r *GormStore) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBarber(tx, ap.BarberID); err != nil {
			return err
		}
		if err := assertNoTimeConflict(tx, ap); err != nil {
			return err
		}

		ap.UpdatedAt = time.Now().UnixMilli()
		res := tx.Model(&models.Appointment{}).
			Where("appointment_id = ? AND barber_id = ?", ap.AppointmentID, ap.BarberID).
			Updates(map[string]any{
				"customer_name":  ap.CustomerName,
				"customer_phone": ap.CustomerPhone,
				"start_time":     ap.StartTime,
				"end_time":       ap.EndTime,
				"service":        ap.Service,
				"service_id":     ap.ServiceID,
				"notes":          ap.Notes,
				"status":         ap.Status,
				"updated_at":     ap.UpdatedAt,
			})
		return affected("appointment "+ap.AppointmentID, res)
	})
}

func (r *GormStore) DeleteAppointment(
	ctx context.Context,
	barberID string,
	appointmentID string,
) error {
	res := r.db.WithContext(ctx).
		Where("appointment_id = ? AND barber_id = ?", appointmentID, barberID).
		Delete(&models.Appointment{})
	return affected("appointment "+appointmentID, res)
}

// lockBarber serializes schedule writers of one barber for the rest of
// the transaction.
func lockBarber(tx *gorm.DB, barberID string) error {
	var b models.Barber
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("barber_id").
		Where("barber_id = ?", barberID).
		First(&b).Error
	return mapErr("barber "+barberID, err)
}

func assertNoTimeConflict(tx *gorm.DB, ap *models.Appointment) error {
	if !domain.Blocks(ap) {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Appointment{}).
		Where(
			"barber_id = ? AND status <> ? AND start_time < ? AND end_time > ? AND appointment_id <> ?",
			ap.BarberID,
			string(domain.StatusCancelled),
			ap.EndTime,
			ap.StartTime,
			ap.AppointmentID,
		).
		Count(&count).Error; err != nil {
		return mapErr("conflict check", err)
	}

	if count > 0 {
		return fmt.Errorf("appointment %s: %w", ap.AppointmentID, storage.ErrConflict)
	}
	return nil
}

// --------------------------------------------------
// User
// --------------------------------------------------

func (r *GormStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&u).Error; err != nil {
		return nil, mapErr("user "+username, err)
	}
	return &u, nil
}

func (r *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr("user "+u.Username, r.db.WithContext(ctx).Create(u).Error)
}

func (r *GormStore) UpdateUser(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", u.Username).
		Updates(map[string]any{
			"password_hash": u.PasswordHash,
			"email":         u.Email,
			"role":          u.Role,
		})
	return affected("user "+u.Username, res)
}

func (r *GormStore) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Compile-time check
var (
	_ storage.Store     = (*GormStore)(nil)
	_ domain.Repository = (*GormStore)(nil)
)
