package marketplace

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// SnapshotItem is one fetch cycle's view of a single external record. It is
// never persisted; it exists only to drive the reconciliation diff.
type SnapshotItem struct {
	ExternalID string
	SKU        string
	Title      string
	Price      decimal.Decimal
	Quantity   int
	Status     enums.ListingStatus
}

// Page is one chunk of the external snapshot. An empty NextToken means the
// source has no further pages.
type Page struct {
	Items     []SnapshotItem
	NextToken string
}

// CatalogSource abstracts one marketplace's listing API behind the three
// operations the sync engine needs. Implementations own transport, auth,
// and payload mapping.
type CatalogSource interface {
	Marketplace() enums.MarketplaceType

	// FetchListingsPage returns one page of the current external snapshot.
	// An empty pageToken requests the first page.
	FetchListingsPage(ctx context.Context, pageToken string, limit int) (Page, error)

	// FetchStock reads the authoritative stock count for one item.
	FetchStock(ctx context.Context, externalID string) (int, error)

	// WritePrice pushes a new price for one item back to the marketplace.
	WritePrice(ctx context.Context, externalID string, price decimal.Decimal) error
}
