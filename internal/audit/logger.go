package audit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

// Sink persists audit entries.
type Sink interface {
	WriteAuditLog(ctx context.Context, entry *models.AuditLog) error
}

type Logger struct {
	sink Sink
}

func New(sink Sink) *Logger {
	return &Logger{sink: sink}
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	entry := models.AuditLog{
		ID:       uuid.NewString(),
		Actor:    ev.Actor,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: metaJSON,
	}

	return l.sink.WriteAuditLog(ctx, &entry)
}

// GormSink writes to the audit_logs table.
type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) WriteAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormSink) ListAuditLogs(ctx context.Context, q Query) ([]models.AuditLog, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if q.Entity != "" {
		tx = tx.Where("entity = ?", q.Entity)
	}
	if q.From != nil {
		tx = tx.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("created_at <= ?", *q.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	logs := []models.AuditLog{}
	if err := tx.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(q.Offset, 0)).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// LogSink prints entries to the process log.
type LogSink struct{}

func (LogSink) WriteAuditLog(_ context.Context, entry *models.AuditLog) error {
	log.Printf("audit: actor=%q action=%s entity=%s id=%s meta=%s",
		entry.Actor, entry.Action, entry.Entity, entry.EntityID, entry.Metadata)
	return nil
}

var (
	_ Sink   = (*GormSink)(nil)
	_ Reader = (*GormSink)(nil)
	_ Sink   = LogSink{}
)
