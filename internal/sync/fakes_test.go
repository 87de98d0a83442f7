package sync

import (
	"context"
	"errors"
	"io"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/listings"
	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

// fakeStore is an in-memory listings.Store that records which writer path
// touched each row.
type fakeStore struct {
	mu   stdsync.Mutex
	rows map[uuid.UUID]*models.Listing

	failCreateFor map[string]error
	failUpdateFor map[uuid.UUID]error
	failList      error

	// hiddenFromList simulates rows inserted by a concurrent run after the
	// initial load: present for lookups, invisible to GetExistingListings.
	hiddenFromList map[uuid.UUID]bool

	catalogWrites   []uuid.UUID
	inventoryWrites []uuid.UUID
	repriceWrites   []uuid.UUID
}

var _ listings.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:           map[uuid.UUID]*models.Listing{},
		failCreateFor:  map[string]error{},
		failUpdateFor:  map[uuid.UUID]error{},
		hiddenFromList: map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) seed(userID uuid.UUID, mkt enums.MarketplaceType, externalID string, mutate func(*models.Listing)) *models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()

	listing := &models.Listing{
		ID:          uuid.New(),
		UserID:      userID,
		Marketplace: mkt,
		ExternalID:  externalID,
		Title:       "Seed " + externalID,
		Price:       decimal.RequireFromString("10.00"),
		Status:      enums.ListingStatusActive,
		SyncStatus:  enums.ListingSyncSynced,
	}
	if mutate != nil {
		mutate(listing)
	}
	f.rows[listing.ID] = listing
	return listing
}

func (f *fakeStore) get(id uuid.UUID) models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.rows[id]
}

func (f *fakeStore) GetExistingListings(_ context.Context, userID uuid.UUID, mkt enums.MarketplaceType) ([]models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []models.Listing
	for _, listing := range f.rows {
		if f.hiddenFromList[listing.ID] {
			continue
		}
		if listing.UserID == userID && listing.Marketplace == mkt {
			out = append(out, *listing)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.rows[id]
	if !ok {
		return nil, errors.New("listing not found")
	}
	copied := *listing
	return &copied, nil
}

func (f *fakeStore) FindByExternalID(_ context.Context, userID uuid.UUID, mkt enums.MarketplaceType, externalID string) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, listing := range f.rows {
		if listing.UserID == userID && listing.Marketplace == mkt && listing.ExternalID == externalID {
			copied := *listing
			return &copied, nil
		}
	}
	return nil, errors.New("listing not found")
}

func (f *fakeStore) Create(_ context.Context, listing *models.Listing) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failCreateFor[listing.ExternalID]; err != nil {
		return nil, err
	}
	copied := *listing
	f.rows[copied.ID] = &copied
	return listing, nil
}

func (f *fakeStore) ApplyCatalogUpdate(_ context.Context, id uuid.UUID, update listings.CatalogUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdateFor[id]; err != nil {
		return err
	}
	listing, ok := f.rows[id]
	if !ok {
		return errors.New("listing not found")
	}
	if update.SKU != nil {
		listing.SKU = *update.SKU
	}
	if update.Title != nil {
		listing.Title = *update.Title
	}
	if update.Price != nil {
		listing.Price = *update.Price
	}
	if update.Status != nil {
		listing.Status = *update.Status
	}
	listing.SyncStatus = enums.ListingSyncSynced
	now := time.Now().UTC()
	listing.LastSyncedAt = &now
	f.catalogWrites = append(f.catalogWrites, id)
	return nil
}

func (f *fakeStore) ApplyInventoryUpdate(_ context.Context, id uuid.UUID, update listings.InventoryUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdateFor[id]; err != nil {
		return err
	}
	listing, ok := f.rows[id]
	if !ok {
		return errors.New("listing not found")
	}
	listing.CurrentStockLevel = update.CurrentStockLevel
	listing.IsAvailable = update.IsAvailable
	f.inventoryWrites = append(f.inventoryWrites, id)
	return nil
}

func (f *fakeStore) ApplyRepriceUpdate(_ context.Context, id uuid.UUID, update listings.RepriceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdateFor[id]; err != nil {
		return err
	}
	listing, ok := f.rows[id]
	if !ok {
		return errors.New("listing not found")
	}
	floor := update.MinimumResellPrice
	listing.MinimumResellPrice = &floor
	if update.Price != nil {
		listing.Price = *update.Price
	}
	f.repriceWrites = append(f.repriceWrites, id)
	return nil
}

func (f *fakeStore) MarkSyncStatus(_ context.Context, ids []uuid.UUID, status enums.ListingSyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if listing, ok := f.rows[id]; ok {
			listing.SyncStatus = status
		}
	}
	return nil
}

func (f *fakeStore) ListForRepricing(_ context.Context, userID uuid.UUID, mkt enums.MarketplaceType) ([]models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Listing
	for _, listing := range f.rows {
		if listing.UserID == userID && listing.Marketplace == mkt &&
			listing.Status == enums.ListingStatusActive && listing.SyncStatus == enums.ListingSyncSynced {
			out = append(out, *listing)
		}
	}
	return out, nil
}

// fakeSource serves canned snapshot pages and stock counts.
type fakeSource struct {
	mu    stdsync.Mutex
	pages [][]marketplace.SnapshotItem

	failPage    int // 1-based index of the page fetch that fails; 0 means never
	fetchCalls  int
	stock       map[string]int
	stockErrFor map[string]error
	stockReads  []string

	priceWrites map[string]decimal.Decimal
	priceErrFor map[string]error
}

var _ marketplace.CatalogSource = (*fakeSource)(nil)

func newFakeSource(pages ...[]marketplace.SnapshotItem) *fakeSource {
	return &fakeSource{
		pages:       pages,
		stock:       map[string]int{},
		stockErrFor: map[string]error{},
		priceWrites: map[string]decimal.Decimal{},
		priceErrFor: map[string]error{},
	}
}

func (f *fakeSource) Marketplace() enums.MarketplaceType {
	return enums.MarketplaceSquare
}

func (f *fakeSource) FetchListingsPage(_ context.Context, pageToken string, _ int) (marketplace.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.failPage > 0 && f.fetchCalls == f.failPage {
		return marketplace.Page{}, errors.New("marketplace unavailable")
	}

	idx := 0
	if pageToken != "" {
		for i := range f.pages {
			if pageToken == pageTokenFor(i) {
				idx = i
				break
			}
		}
	}
	if idx >= len(f.pages) {
		return marketplace.Page{}, nil
	}

	page := marketplace.Page{Items: f.pages[idx]}
	if idx+1 < len(f.pages) {
		page.NextToken = pageTokenFor(idx + 1)
	}
	return page, nil
}

func pageTokenFor(idx int) string {
	return "page-" + string(rune('a'+idx))
}

func (f *fakeSource) FetchStock(_ context.Context, externalID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockReads = append(f.stockReads, externalID)
	if err := f.stockErrFor[externalID]; err != nil {
		return 0, err
	}
	return f.stock[externalID], nil
}

func (f *fakeSource) WritePrice(_ context.Context, externalID string, price decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.priceErrFor[externalID]; err != nil {
		return err
	}
	f.priceWrites[externalID] = price
	return nil
}

// fakeAudit records appended entries.
type fakeAudit struct {
	mu      stdsync.Mutex
	entries []audit.Entry
}

var _ audit.Service = (*fakeAudit)(nil)

func (f *fakeAudit) Append(_ context.Context, entry audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) ofType(eventType enums.AuditEventType) []audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.Entry
	for _, entry := range f.entries {
		if entry.Type == eventType {
			out = append(out, entry)
		}
	}
	return out
}

// fakeStatusStore records state transitions in order.
type fakeStatusStore struct {
	mu          stdsync.Mutex
	transitions []enums.SyncRunStatus
	total       int
	lastError   string

	failSyncing error
}

var _ StatusStore = (*fakeStatusStore)(nil)

func (f *fakeStatusStore) Get(context.Context, uuid.UUID, enums.MarketplaceType) (*models.SyncStatusRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStatusStore) MarkSyncing(context.Context, uuid.UUID, enums.MarketplaceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSyncing != nil {
		return f.failSyncing
	}
	f.transitions = append(f.transitions, enums.SyncRunSyncing)
	return nil
}

func (f *fakeStatusStore) MarkCompleted(_ context.Context, _ uuid.UUID, _ enums.MarketplaceType, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, enums.SyncRunCompleted)
	f.total = total
	return nil
}

func (f *fakeStatusStore) MarkError(_ context.Context, _ uuid.UUID, _ enums.MarketplaceType, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, enums.SyncRunError)
	f.lastError = message
	return nil
}

// fakeSourceFactory returns one canned source.
type fakeSourceFactory struct {
	source marketplace.CatalogSource
	err    error
}

var _ SourceFactory = (*fakeSourceFactory)(nil)

func (f *fakeSourceFactory) SourceFor(context.Context, marketplace.Credentials) (marketplace.CatalogSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.source, nil
}

func item(externalID, title, price string, qty int) marketplace.SnapshotItem {
	return marketplace.SnapshotItem{
		ExternalID: externalID,
		SKU:        "SKU-" + externalID,
		Title:      title,
		Price:      decimal.RequireFromString(price),
		Quantity:   qty,
		Status:     enums.ListingStatusActive,
	}
}
