package lock

import (
	"context"
	"errors"
)

// ErrBusy is returned when the lock could not be taken before the wait
// limit ran out.
var ErrBusy = errors.New("lock: busy")

// Locker serializes work on a key. The returned unlock must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func BarberKey(barberID string) string {
	return "barber-schedule:" + barberID
}
