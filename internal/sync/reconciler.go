package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/listings"
	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// WorkItem identifies one reconciled listing for the inventory pass.
type WorkItem struct {
	ListingID  uuid.UUID
	ExternalID string
}

// Result summarizes one reconciliation run. Per-item failures are counted
// here, never raised; a non-nil error from Reconcile means the run itself
// could not complete.
type Result struct {
	Added    int
	Updated  int
	NotFound int
	Errors   int

	// Touched lists every listing successfully created or refreshed this
	// run, in snapshot order. It seeds the detached inventory pass.
	Touched []WorkItem
}

// TotalSynced is the number of listings confirmed present this run.
func (r Result) TotalSynced() int {
	return r.Added + r.Updated
}

// ReconcilerOptions tune one reconciler instance.
type ReconcilerOptions struct {
	PageSize       int
	RequestTimeout time.Duration
}

// Reconciler diffs the external snapshot against the local listing set for
// one (user, marketplace) pair and applies create/update/not-found
// transitions record by record.
type Reconciler struct {
	store listings.Store
	audit audit.Service
	logg  *logger.Logger
	opts  ReconcilerOptions
}

// NewReconciler wires a reconciler with its collaborators.
func NewReconciler(store listings.Store, auditSvc audit.Service, logg *logger.Logger, opts ReconcilerOptions) (*Reconciler, error) {
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
	return &Reconciler{store: store, audit: auditSvc, logg: logg, opts: opts}, nil
}

// Reconcile walks the current external snapshot and converges the listing
// store onto it. It returns an error only when the run as a whole cannot
// complete: a failed store read up front, or a failed snapshot page fetch.
// A partial snapshot must never drive the not-found pass, so fetch failures
// abort before any disappearance marking.
func (r *Reconciler) Reconcile(ctx context.Context, userID uuid.UUID, mkt enums.MarketplaceType, source marketplace.CatalogSource) (Result, error) {
	ctx = r.logg.WithUserID(ctx, userID.String())
	ctx = r.logg.WithMarketplace(ctx, mkt.String())

	var result Result

	existing, err := r.store.GetExistingListings(ctx, userID, mkt)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing listings")
	}
	existingMap := make(map[string]models.Listing, len(existing))
	for _, listing := range existing {
		existingMap[listing.ExternalID] = listing
	}

	// seen maps external ids already handled this run to their listing id,
	// so a duplicate page entry becomes an update against the record just
	// written (last write wins within one run).
	seen := make(map[string]uuid.UUID)

	snapshot := marketplace.NewSnapshot(source, r.opts.PageSize)
	for {
		item, ok, err := r.nextItem(ctx, snapshot)
		if err != nil {
			return result, err
		}
		if !ok {
			break
		}

		itemCtx := r.logg.WithExternalID(ctx, item.ExternalID)
		if id, dup := seen[item.ExternalID]; dup {
			if err := r.applyUpdate(itemCtx, userID, id, item); err != nil {
				result.Errors++
				r.logg.Error(itemCtx, "listing update failed", err)
				continue
			}
			result.Updated++
			continue
		}

		if current, found := existingMap[item.ExternalID]; found {
			// Present in the snapshot, so it can never be marked not_found
			// this run even if the write below fails.
			delete(existingMap, item.ExternalID)
			seen[item.ExternalID] = current.ID

			if err := r.applyUpdate(itemCtx, userID, current.ID, item); err != nil {
				result.Errors++
				r.logg.Error(itemCtx, "listing update failed", err)
				continue
			}
			result.Updated++
			result.Touched = append(result.Touched, WorkItem{ListingID: current.ID, ExternalID: item.ExternalID})
			continue
		}

		created, err := r.applyCreate(itemCtx, userID, mkt, item)
		if err != nil {
			// A concurrent run may have inserted the row between the load
			// and this create; converge on an update instead.
			if db.IsUniqueViolation(err, "ux_listings_identity") {
				if current, findErr := r.store.FindByExternalID(itemCtx, userID, mkt, item.ExternalID); findErr == nil {
					seen[item.ExternalID] = current.ID
					if updErr := r.applyUpdate(itemCtx, userID, current.ID, item); updErr == nil {
						result.Updated++
						result.Touched = append(result.Touched, WorkItem{ListingID: current.ID, ExternalID: item.ExternalID})
						continue
					}
				}
			}
			result.Errors++
			r.logg.Error(itemCtx, "listing create failed", err)
			continue
		}
		seen[item.ExternalID] = created.ID
		result.Added++
		result.Touched = append(result.Touched, WorkItem{ListingID: created.ID, ExternalID: item.ExternalID})
	}

	r.markMissing(ctx, userID, existingMap, &result)

	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"added":     result.Added,
		"updated":   result.Updated,
		"not_found": result.NotFound,
		"errors":    result.Errors,
	}), "reconciliation finished")
	return result, nil
}

func (r *Reconciler) nextItem(ctx context.Context, snapshot *marketplace.Snapshot) (marketplace.SnapshotItem, bool, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()
	return snapshot.Next(fetchCtx)
}

// applyUpdate overwrites the catalog-owned fields only. Stock and
// availability belong to the inventory worker and stay untouched.
func (r *Reconciler) applyUpdate(ctx context.Context, userID, listingID uuid.UUID, item marketplace.SnapshotItem) error {
	title := item.Title
	price := item.Price
	status := item.Status
	update := listings.CatalogUpdate{
		Title:  &title,
		Price:  &price,
		Status: &status,
	}
	if item.SKU != "" {
		sku := item.SKU
		update.SKU = &sku
	}
	if err := r.store.ApplyCatalogUpdate(ctx, listingID, update); err != nil {
		return err
	}

	r.audit.Append(ctx, audit.Entry{
		UserID:    userID,
		Type:      enums.AuditListingSynced,
		ListingID: &listingID,
		Data: map[string]any{
			"external_id": item.ExternalID,
			"price":       item.Price.StringFixed(2),
			"status":      item.Status.String(),
		},
	})
	return nil
}

// applyCreate inserts a brand-new listing. This is the one place the
// reconciler may seed stock fields, because no authoritative value exists
// yet for the inventory worker to have written.
func (r *Reconciler) applyCreate(ctx context.Context, userID uuid.UUID, mkt enums.MarketplaceType, item marketplace.SnapshotItem) (*models.Listing, error) {
	now := time.Now().UTC()
	listing := &models.Listing{
		ID:                uuid.New(),
		UserID:            userID,
		Marketplace:       mkt,
		ExternalID:        item.ExternalID,
		SKU:               item.SKU,
		Title:             item.Title,
		Price:             item.Price,
		Status:            item.Status,
		CurrentStockLevel: item.Quantity,
		IsAvailable:       item.Quantity > 0,
		SyncStatus:        enums.ListingSyncSynced,
		LastSyncedAt:      &now,
	}
	created, err := r.store.Create(ctx, listing)
	if err != nil {
		return nil, err
	}

	r.audit.Append(ctx, audit.Entry{
		UserID:    userID,
		Type:      enums.AuditListingCreated,
		ListingID: &created.ID,
		Data: map[string]any{
			"external_id": item.ExternalID,
			"title":       item.Title,
			"price":       item.Price.StringFixed(2),
		},
	})
	return created, nil
}

// markMissing soft-deletes everything the snapshot no longer contains. The
// rows stay in place so a reappearance flips them back instead of creating
// duplicates.
func (r *Reconciler) markMissing(ctx context.Context, userID uuid.UUID, missing map[string]models.Listing, result *Result) {
	if len(missing) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(missing))
	for _, listing := range missing {
		ids = append(ids, listing.ID)
	}

	if err := r.store.MarkSyncStatus(ctx, ids, enums.ListingSyncNotFound); err != nil {
		result.Errors += len(ids)
		r.logg.Error(ctx, "mark not_found failed", err)
		return
	}
	result.NotFound = len(ids)

	for externalID, listing := range missing {
		listingID := listing.ID
		r.audit.Append(ctx, audit.Entry{
			UserID:    userID,
			Type:      enums.AuditListingNotFound,
			ListingID: &listingID,
			Data:      map[string]any{"external_id": externalID},
		})
	}
}
