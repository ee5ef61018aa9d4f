package audit

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Query filters audit entries. From and To bound CreatedAt in epoch
// milliseconds, both inclusive.
type Query struct {
	Action string
	Entity string
	From   *int64
	To     *int64

	Limit  int
	Offset int
}

func (q Query) Match(e *models.AuditLog) bool {
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	if q.Entity != "" && e.Entity != q.Entity {
		return false
	}
	if q.From != nil && e.CreatedAt < *q.From {
		return false
	}
	if q.To != nil && e.CreatedAt > *q.To {
		return false
	}
	return true
}

// Reader lists audit entries newest first together with the total number
// of matches.
type Reader interface {
	ListAuditLogs(ctx context.Context, q Query) ([]models.AuditLog, int64, error)
}

// Page cuts one page out of entries that already match q and are sorted
// newest first.
func Page(entries []models.AuditLog, q Query) ([]models.AuditLog, int64) {
	total := int64(len(entries))

	limit := q.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	offset := max(q.Offset, 0)
	if offset >= len(entries) {
		return []models.AuditLog{}, total
	}

	end := min(offset+limit, len(entries))
	return entries[offset:end], total
}
