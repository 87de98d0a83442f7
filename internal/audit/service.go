package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// Entry is one audit fact to record. Data is marshaled into the event row
// as-is.
type Entry struct {
	UserID    uuid.UUID
	Type      enums.AuditEventType
	Data      map[string]any
	ListingID *uuid.UUID
	ProductID *uuid.UUID
}

// Service appends audit events. Appends are best-effort: a failed write is
// logged and swallowed so audit problems can never fail the operation being
// audited.
type Service interface {
	Append(ctx context.Context, entry Entry)
}

// Repository persists audit rows.
type Repository interface {
	CreateEvent(ctx context.Context, event *models.AuditEvent) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed audit repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateEvent(ctx context.Context, event *models.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the audit service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("audit repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Append(ctx context.Context, entry Entry) {
	event := &models.AuditEvent{
		UserID:    entry.UserID,
		EventType: entry.Type,
		ListingID: entry.ListingID,
		ProductID: entry.ProductID,
	}
	if entry.Data != nil {
		payload, err := json.Marshal(entry.Data)
		if err != nil {
			s.logg.Error(s.logg.WithUserID(ctx, entry.UserID.String()), "audit payload marshal failed", err)
			return
		}
		event.EventData = payload
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		ctx = s.logg.WithUserID(ctx, entry.UserID.String())
		ctx = s.logg.WithFields(ctx, map[string]any{"event_type": entry.Type.String()})
		s.logg.Error(ctx, "audit append failed", err)
	}
}
