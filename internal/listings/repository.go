package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// Store defines persistence operations for listing rows. Writers are split
// by column owner: the reconciler uses ApplyCatalogUpdate, the inventory
// worker uses ApplyInventoryUpdate, and the repricing engine uses
// ApplyRepriceUpdate. No caller gets a whole-row save.
type Store interface {
	GetExistingListings(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) ([]models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByExternalID(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, externalID string) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	ApplyCatalogUpdate(ctx context.Context, id uuid.UUID, update CatalogUpdate) error
	ApplyInventoryUpdate(ctx context.Context, id uuid.UUID, update InventoryUpdate) error
	ApplyRepriceUpdate(ctx context.Context, id uuid.UUID, update RepriceUpdate) error
	MarkSyncStatus(ctx context.Context, ids []uuid.UUID, status enums.ListingSyncStatus) error
	ListForRepricing(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) ([]models.Listing, error)
}

// Repository implements Store on GORM.
type Repository struct {
	db *gorm.DB
}

var _ Store = (*Repository)(nil)

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// GetExistingListings returns every listing for the user on the marketplace,
// including not_found rows. The reconciler diffs snapshots against this set.
func (r *Repository) GetExistingListings(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND marketplace = ?", userID, marketplace).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindByID loads one listing row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByExternalID loads a listing by its marketplace identity.
func (r *Repository) FindByExternalID(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType, externalID string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		First(&listing, "user_id = ? AND marketplace = ? AND external_id = ?", userID, marketplace, externalID).
		Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Create inserts a new listing row.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// ApplyCatalogUpdate writes reconciler-owned columns and refreshes the sync
// bookkeeping in the same statement.
func (r *Repository) ApplyCatalogUpdate(ctx context.Context, id uuid.UUID, update CatalogUpdate) error {
	cols := update.columns()
	cols["sync_status"] = enums.ListingSyncSynced
	cols["last_synced_at"] = time.Now().UTC()
	return r.applyColumns(ctx, id, cols)
}

// ApplyInventoryUpdate writes the stock-owned columns only.
func (r *Repository) ApplyInventoryUpdate(ctx context.Context, id uuid.UUID, update InventoryUpdate) error {
	return r.applyColumns(ctx, id, update.columns())
}

// ApplyRepriceUpdate writes the repricing-owned columns only.
func (r *Repository) ApplyRepriceUpdate(ctx context.Context, id uuid.UUID, update RepriceUpdate) error {
	return r.applyColumns(ctx, id, update.columns())
}

func (r *Repository) applyColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkSyncStatus flips sync_status for a batch of listings. Rows are never
// deleted when they disappear from a snapshot; they are marked not_found and
// flipped back to synced on reappearance.
func (r *Repository) MarkSyncStatus(ctx context.Context, ids []uuid.UUID, status enums.ListingSyncStatus) error {
	if len(ids) == 0 {
		return nil
	}
	if !status.IsValid() {
		return errors.New("invalid listing sync status")
	}
	cols := map[string]any{"sync_status": status}
	if status == enums.ListingSyncSynced {
		cols["last_synced_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id IN ?", ids).
		Updates(cols).
		Error
}

// ListForRepricing returns active, synced listings that carry the fields the
// repricing engine reads.
func (r *Repository) ListForRepricing(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND marketplace = ? AND status = ? AND sync_status = ?",
			userID, marketplace, enums.ListingStatusActive, enums.ListingSyncSynced).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}
