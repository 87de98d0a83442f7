package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// StatusStore tracks the per-(user, marketplace) run state machine:
// idle -> syncing -> {completed | error}.
type StatusStore interface {
	Get(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) (*models.SyncStatusRecord, error)
	MarkSyncing(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) error
	MarkCompleted(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, totalListings int) error
	MarkError(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, message string) error
}

// StatusRepository implements StatusStore on GORM.
type StatusRepository struct {
	db *gorm.DB
}

var _ StatusStore = (*StatusRepository)(nil)

// NewStatusRepository builds a repository tied to the provided GORM DB.
func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Get loads the status record for one key.
func (r *StatusRepository) Get(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) (*models.SyncStatusRecord, error) {
	var record models.SyncStatusRecord
	err := r.db.WithContext(ctx).
		First(&record, "user_id = ? AND marketplace = ?", userID, marketplace).
		Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkSyncing upserts the record into the syncing state. The row is created
// on the first sync attempt and only updated afterwards.
func (r *StatusRepository) MarkSyncing(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) error {
	record := models.SyncStatusRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Marketplace: marketplace,
		Status:      enums.SyncRunSyncing,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "marketplace"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":        enums.SyncRunSyncing,
				"error_message": nil,
				"updated_at":    time.Now().UTC(),
			}),
		}).
		Create(&record).
		Error
}

// MarkCompleted records a successful run.
func (r *StatusRepository) MarkCompleted(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, totalListings int) error {
	return r.update(ctx, userID, marketplace, map[string]any{
		"status":         enums.SyncRunCompleted,
		"last_full_sync": time.Now().UTC(),
		"total_listings": totalListings,
		"error_message":  nil,
	})
}

// MarkError records a failed run with its message.
func (r *StatusRepository) MarkError(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, message string) error {
	return r.update(ctx, userID, marketplace, map[string]any{
		"status":        enums.SyncRunError,
		"error_message": message,
	})
}

func (r *StatusRepository) update(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, cols map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncStatusRecord{}).
		Where("user_id = ? AND marketplace = ?", userID, marketplace).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
