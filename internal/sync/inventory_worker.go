package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/listings"
	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// InventoryWorkerOptions tune the detached stock verification pass.
type InventoryWorkerOptions struct {
	// Delay is the fixed pause between per-item stock reads. It is a
	// configured constant to stay under the marketplace rate limit, never
	// computed dynamically.
	Delay          time.Duration
	RequestTimeout time.Duration
}

// InventoryWorker re-verifies authoritative stock counts per listing after a
// reconciliation pass. It is the only writer of current_stock_level and
// is_available. Items are processed one at a time on purpose; parallelism
// would defeat the rate limit.
type InventoryWorker struct {
	store listings.Store
	audit audit.Service
	logg  *logger.Logger
	opts  InventoryWorkerOptions

	sleep func(ctx context.Context, d time.Duration)
}

// NewInventoryWorker wires the worker with its collaborators.
func NewInventoryWorker(store listings.Store, auditSvc audit.Service, logg *logger.Logger, opts InventoryWorkerOptions) (*InventoryWorker, error) {
	if store == nil {
		return nil, errors.New("listing store is required")
	}
	if auditSvc == nil {
		return nil, errors.New("audit service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	return &InventoryWorker{
		store: store,
		audit: auditSvc,
		logg:  logg,
		opts:  opts,
		sleep: sleepWithContext,
	}, nil
}

// Spawn runs SyncInventory on its own goroutine with its own error boundary.
// The caller never observes its outcome; progress is visible only through
// the listing store and the audit log. The detached context survives
// cancellation of the triggering request.
func (w *InventoryWorker) Spawn(ctx context.Context, userID uuid.UUID, mkt enums.MarketplaceType, source marketplace.CatalogSource, items []WorkItem) {
	detached := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				w.logg.Error(detached, "inventory sync panicked", fmt.Errorf("panic: %v", rec))
			}
		}()
		w.SyncInventory(detached, userID, mkt, source, items)
	}()
}

// SyncInventory walks the reconciled items sequentially, reading the
// authoritative stock count for each and writing the stock-owned columns.
// Per-item failures are logged and skipped; the loop has no failure state
// of its own.
func (w *InventoryWorker) SyncInventory(ctx context.Context, userID uuid.UUID, mkt enums.MarketplaceType, source marketplace.CatalogSource, items []WorkItem) {
	ctx = w.logg.WithUserID(ctx, userID.String())
	ctx = w.logg.WithMarketplace(ctx, mkt.String())
	w.logg.Info(w.logg.WithField(ctx, "items", len(items)), "inventory sync started")

	synced := 0
	for i, item := range items {
		if i > 0 && w.opts.Delay > 0 {
			w.sleep(ctx, w.opts.Delay)
		}
		if ctx.Err() != nil {
			w.logg.Warn(w.logg.WithField(ctx, "remaining", len(items)-i), "inventory sync interrupted")
			return
		}
		if w.syncOne(ctx, userID, item, source) {
			synced++
		}
	}

	w.logg.Info(w.logg.WithFields(ctx, map[string]any{
		"items":  len(items),
		"synced": synced,
	}), "inventory sync finished")
}

func (w *InventoryWorker) syncOne(ctx context.Context, userID uuid.UUID, item WorkItem, source marketplace.CatalogSource) bool {
	ctx = w.logg.WithExternalID(ctx, item.ExternalID)
	ctx = w.logg.WithListingID(ctx, item.ListingID.String())

	readCtx, cancel := context.WithTimeout(ctx, w.opts.RequestTimeout)
	quantity, err := source.FetchStock(readCtx, item.ExternalID)
	cancel()
	if err != nil {
		w.logg.Error(ctx, "stock read failed", err)
		return false
	}

	update := listings.InventoryUpdate{
		CurrentStockLevel: quantity,
		IsAvailable:       quantity > 0,
	}
	if err := w.store.ApplyInventoryUpdate(ctx, item.ListingID, update); err != nil {
		// No stock_updated event here: the stored value did not change.
		w.logg.Error(ctx, "stock write failed", err)
		return false
	}

	listingID := item.ListingID
	w.audit.Append(ctx, audit.Entry{
		UserID:    userID,
		Type:      enums.AuditStockUpdated,
		ListingID: &listingID,
		Data: map[string]any{
			"external_id":  item.ExternalID,
			"quantity":     quantity,
			"is_available": quantity > 0,
		},
	})
	return true
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
