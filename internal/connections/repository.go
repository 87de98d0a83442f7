package connections

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// Repository exposes marketplace connection persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListEnabled returns every connection eligible for background syncing.
func (r *Repository) ListEnabled(ctx context.Context) ([]models.MarketplaceConnection, error) {
	var rows []models.MarketplaceConnection
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindByUserAndMarketplace loads one user's connection for a marketplace.
func (r *Repository) FindByUserAndMarketplace(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) (*models.MarketplaceConnection, error) {
	var conn models.MarketplaceConnection
	err := r.db.WithContext(ctx).
		First(&conn, "user_id = ? AND marketplace = ?", userID, marketplace).
		Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Upsert creates or replaces the connection row for its identity pair.
func (r *Repository) Upsert(ctx context.Context, conn *models.MarketplaceConnection) (*models.MarketplaceConnection, error) {
	if err := r.db.WithContext(ctx).Save(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}
