package listings

import (
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// CatalogUpdate carries the catalog-owned columns. Only the reconciler
// builds these; nil pointers leave the column untouched.
type CatalogUpdate struct {
	SKU    *string
	Title  *string
	Price  *decimal.Decimal
	Status *enums.ListingStatus
}

func (u CatalogUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.SKU != nil {
		cols["sku"] = *u.SKU
	}
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	return cols
}

// InventoryUpdate carries the stock-owned columns written by the inventory
// worker.
type InventoryUpdate struct {
	CurrentStockLevel int
	IsAvailable       bool
}

func (u InventoryUpdate) columns() map[string]any {
	return map[string]any{
		"current_stock_level": u.CurrentStockLevel,
		"is_available":        u.IsAvailable,
	}
}

// RepriceUpdate carries the repricing-owned columns. Price is nil for
// notification-only runs where the floor is recorded but the sale price is
// left alone.
type RepriceUpdate struct {
	Price              *decimal.Decimal
	MinimumResellPrice decimal.Decimal
}

func (u RepriceUpdate) columns() map[string]any {
	cols := map[string]any{
		"minimum_resell_price": u.MinimumResellPrice,
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	return cols
}
