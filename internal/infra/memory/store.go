package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

const maxAuditLogs = 1000

// Store keeps every collection in process memory behind one mutex. With a
// resources directory set, each write is also flushed to JSON files.
type Store struct {
	mu sync.RWMutex

	barbers      []models.Barber
	services     []models.Service
	appointments []models.Appointment
	users        []models.User
	auditLogs    []models.AuditLog

	files *fileSet
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// ==================================================
// Barbers
// ==================================================

func (s *Store) ListBarbers(ctx context.Context) ([]models.Barber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Barber, len(s.barbers))
	for i, b := range s.barbers {
		out[i] = cloneBarber(b)
	}
	return out, nil
}

func (s *Store) GetBarber(ctx context.Context, barberID string) (*models.Barber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.barberIndex(barberID)
	if i < 0 {
		return nil, fmt.Errorf("barber %s: %w", barberID, storage.ErrNotFound)
	}
	b := cloneBarber(s.barbers[i])
	return &b, nil
}

func (s *Store) CreateBarber(ctx context.Context, b *models.Barber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.barberIndex(b.BarberID) >= 0 {
		return fmt.Errorf("barber %s: %w", b.BarberID, storage.ErrAlreadyExists)
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = s.now().UnixMilli()
	}
	return commit(s, fileBarbers, &s.barbers, appended(s.barbers, cloneBarber(*b)))
}

func (s *Store) UpdateBarber(ctx context.Context, b *models.Barber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.barberIndex(b.BarberID)
	if i < 0 {
		return fmt.Errorf("barber %s: %w", b.BarberID, storage.ErrNotFound)
	}
	return commit(s, fileBarbers, &s.barbers, replaced(s.barbers, i, cloneBarber(*b)))
}

func (s *Store) DeleteBarber(ctx context.Context, barberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.barberIndex(barberID)
	if i < 0 {
		return fmt.Errorf("barber %s: %w", barberID, storage.ErrNotFound)
	}
	return commit(s, fileBarbers, &s.barbers, removed(s.barbers, i))
}

func (s *Store) barberIndex(id string) int {
	return slices.IndexFunc(s.barbers, func(b models.Barber) bool { return b.BarberID == id })
}

func cloneBarber(b models.Barber) models.Barber {
	b.ServiceIDs = slices.Clone(b.ServiceIDs)
	if b.ServiceIDs == nil {
		b.ServiceIDs = models.StringList{}
	}
	return b
}

// ==================================================
// Services
// ==================================================

func (s *Store) ListServices(ctx context.Context) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.services), nil
}

func (s *Store) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.serviceIndex(serviceID)
	if i < 0 {
		return nil, fmt.Errorf("service %s: %w", serviceID, storage.ErrNotFound)
	}
	svc := s.services[i]
	return &svc, nil
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.serviceIndex(svc.ServiceID) >= 0 {
		return fmt.Errorf("service %s: %w", svc.ServiceID, storage.ErrAlreadyExists)
	}
	if svc.CreatedAt == 0 {
		svc.CreatedAt = s.now().UnixMilli()
	}
	return commit(s, fileServices, &s.services, appended(s.services, *svc))
}

func (s *Store) UpdateService(ctx context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.serviceIndex(svc.ServiceID)
	if i < 0 {
		return fmt.Errorf("service %s: %w", svc.ServiceID, storage.ErrNotFound)
	}
	return commit(s, fileServices, &s.services, replaced(s.services, i, *svc))
}

func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.serviceIndex(serviceID)
	if i < 0 {
		return fmt.Errorf("service %s: %w", serviceID, storage.ErrNotFound)
	}
	return commit(s, fileServices, &s.services, removed(s.services, i))
}

func (s *Store) serviceIndex(id string) int {
	return slices.IndexFunc(s.services, func(svc models.Service) bool { return svc.ServiceID == id })
}

// ==================================================
// Appointments
// ==================================================

func (s *Store) ListAppointments(
	ctx context.Context,
	barberID string,
	filter storage.AppointmentFilter,
) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Appointment{}
	for i := range s.appointments {
		ap := &s.appointments[i]
		if ap.BarberID == barberID && filter.Match(ap) {
			out = append(out, *ap)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *Store) GetAppointment(ctx context.Context, barberID, appointmentID string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.appointmentIndex(barberID, appointmentID)
	if i < 0 {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	ap := s.appointments[i]
	return &ap, nil
}

func (s *Store) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appointmentIndex(ap.BarberID, ap.AppointmentID) >= 0 {
		return fmt.Errorf("appointment %s: %w", ap.AppointmentID, storage.ErrAlreadyExists)
	}
	if err := s.checkConflict(ap); err != nil {
		return err
	}

	if ap.CreatedAt == 0 {
		ap.CreatedAt = s.now().UnixMilli()
	}
	return commit(s, fileAppointments, &s.appointments, appended(s.appointments, *ap))
}

func (s *Store) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appointmentIndex(ap.BarberID, ap.AppointmentID)
	if i < 0 {
		return fmt.Errorf("appointment %s: %w", ap.AppointmentID, storage.ErrNotFound)
	}
	if err := s.checkConflict(ap); err != nil {
		return err
	}

	ap.UpdatedAt = s.now().UnixMilli()
	return commit(s, fileAppointments, &s.appointments, replaced(s.appointments, i, *ap))
}

func (s *Store) DeleteAppointment(ctx context.Context, barberID, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appointmentIndex(barberID, appointmentID)
	if i < 0 {
		return fmt.Errorf("appointment %s: %w", appointmentID, storage.ErrNotFound)
	}
	return commit(s, fileAppointments, &s.appointments, removed(s.appointments, i))
}

// checkConflict must run with the write lock held.
func (s *Store) checkConflict(ap *models.Appointment) error {
	if !domain.Blocks(ap) {
		return nil
	}

	same := make([]models.Appointment, 0, 8)
	for _, other := range s.appointments {
		if other.BarberID == ap.BarberID {
			same = append(same, other)
		}
	}

	if c := domain.FindConflict(same, domain.IntervalOf(ap), ap.AppointmentID); c != nil {
		return fmt.Errorf("overlaps %s: %w", c.AppointmentID, storage.ErrConflict)
	}
	return nil
}

func (s *Store) appointmentIndex(barberID, appointmentID string) int {
	return slices.IndexFunc(s.appointments, func(ap models.Appointment) bool {
		return ap.BarberID == barberID && ap.AppointmentID == appointmentID
	})
}

// ==================================================
// Users
// ==================================================

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.userIndex(username)
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	u := s.users[i]
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userIndex(u.Username) >= 0 {
		return fmt.Errorf("user %s: %w", u.Username, storage.ErrAlreadyExists)
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = s.now().UnixMilli()
	}
	return commit(s, fileUsers, &s.users, appended(s.users, *u))
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(u.Username)
	if i < 0 {
		return fmt.Errorf("user %s: %w", u.Username, storage.ErrNotFound)
	}
	return commit(s, fileUsers, &s.users, replaced(s.users, i, *u))
}

func (s *Store) userIndex(username string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.Username == username })
}

// ==================================================
// Audit
// ==================================================

func (s *Store) WriteAuditLog(ctx context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt == 0 {
		entry.CreatedAt = s.now().UnixMilli()
	}
	s.auditLogs = append(s.auditLogs, *entry)
	if len(s.auditLogs) > maxAuditLogs {
		s.auditLogs = slices.Delete(s.auditLogs, 0, len(s.auditLogs)-maxAuditLogs)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, q audit.Query) ([]models.AuditLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.AuditLog{}
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		if q.Match(&s.auditLogs[i]) {
			matched = append(matched, s.auditLogs[i])
		}
	}
	page, total := audit.Page(matched, q)
	return page, total, nil
}

func (s *Store) Close() error {
	return nil
}

var (
	_ storage.Store = (*Store)(nil)
	_ audit.Sink    = (*Store)(nil)
	_ audit.Reader  = (*Store)(nil)
)
