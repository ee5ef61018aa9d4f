package appointment

import (
	"errors"
	"time"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

// Settings carries the shop-wide scheduling rules into the use cases.
type Settings struct {
	Hours    domain.BusinessHours
	Location *time.Location

	// EnforcePolicy turns on domain.ValidateSchedule for writes.
	EnforcePolicy bool

	// Now is overridable in tests.
	Now func() time.Time
}

func (s Settings) now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	if s.Now != nil {
		return s.Now().In(loc)
	}
	return time.Now().In(loc)
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// storeErr translates storage sentinels into business errors. notFound
// is used for storage.ErrNotFound.
func storeErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return notFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	}
	return err
}
