package repricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/listings"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// DefaultFeeRate applies when neither the settings nor the listing carry a
// marketplace fee.
var DefaultFeeRate = decimal.RequireFromString("0.15")

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// ProfitPolicy is the configured margin applied on top of total cost.
type ProfitPolicy struct {
	Type  enums.ProfitPolicyType
	Value decimal.Decimal
}

// Settings carry one user's repricing configuration for a marketplace.
type Settings struct {
	AutoReprice bool
	Profit      *ProfitPolicy
	FeeRate     *decimal.Decimal
}

// SettingsFromConnection derives repricing settings from a stored
// marketplace connection.
func SettingsFromConnection(conn models.MarketplaceConnection) Settings {
	settings := Settings{AutoReprice: conn.AutoRepriceEnabled}
	if conn.ProfitPolicyType != nil && conn.ProfitPolicyValue != nil {
		settings.Profit = &ProfitPolicy{
			Type:  *conn.ProfitPolicyType,
			Value: *conn.ProfitPolicyValue,
		}
	}
	if conn.FeePercentage != nil {
		fee := decimal.NewFromFloat(*conn.FeePercentage)
		settings.FeeRate = &fee
	}
	return settings
}

// Outcome is the per-listing result of one repricing attempt. It is consumed
// by the audit log and the batch summary, never persisted on its own.
type Outcome struct {
	ListingID    uuid.UUID
	MinimumPrice decimal.Decimal
	OldPrice     decimal.Decimal
	NewPrice     decimal.Decimal

	// Applied is true when the external price write and the store update
	// both succeeded. FloorIntact is true when the current price already
	// meets the floor and nothing was done. NotificationOnly is true when
	// automated repricing is off and only the floor was recorded.
	Applied          bool
	FloorIntact      bool
	NotificationOnly bool
	Err              error
}

// Summary aggregates one batch run.
type Summary struct {
	Processed int
	Updated   int
	Failed    int
	Errors    []string
}

// BatchItem is one listing plus its cost inputs for a batch run.
type BatchItem struct {
	Listing      models.Listing
	SourceCost   decimal.Decimal
	ShippingCost decimal.Decimal
}

// PriceStore is the slice of the listing store the engine writes through.
type PriceStore interface {
	ApplyRepriceUpdate(ctx context.Context, id uuid.UUID, update listings.RepriceUpdate) error
}

// PriceWriter pushes a corrected price back to the external marketplace.
type PriceWriter interface {
	WritePrice(ctx context.Context, externalID string, price decimal.Decimal) error
}

// Engine enforces a computed minimum resale price floor per listing. It
// never lowers a price and never optimizes toward a target; it only reacts
// when the current price falls below the floor.
type Engine struct {
	store PriceStore
	audit audit.Service
	logg  *logger.Logger
}

// NewEngine wires the repricing engine.
func NewEngine(store PriceStore, auditSvc audit.Service, logg *logger.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("listing store is required")
	}
	if auditSvc == nil {
		return nil, errors.New("audit service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Engine{store: store, audit: auditSvc, logg: logg}, nil
}

// MinimumPrice computes the floor for the given cost inputs, rounded to two
// decimal places.
func MinimumPrice(sourceCost, shippingCost decimal.Decimal, settings Settings) decimal.Decimal {
	totalCost := sourceCost.Add(shippingCost)

	base := totalCost
	if settings.Profit != nil {
		switch settings.Profit.Type {
		case enums.ProfitPolicyDollar:
			base = totalCost.Add(settings.Profit.Value)
		case enums.ProfitPolicyPercentage:
			base = totalCost.Mul(one.Add(settings.Profit.Value.Div(hundred)))
		}
	}

	fee := DefaultFeeRate
	if settings.FeeRate != nil {
		fee = *settings.FeeRate
	}
	return base.Mul(one.Add(fee)).Round(2)
}

// Reprice evaluates one listing against its freshly computed floor and,
// when automated repricing is on, pushes the correction externally before
// persisting it. A failed external write leaves the stored price untouched.
// Per-listing problems land in the outcome, not in an error return.
func (e *Engine) Reprice(ctx context.Context, source PriceWriter, listing models.Listing, sourceCost, shippingCost decimal.Decimal, settings Settings) Outcome {
	ctx = e.logg.WithUserID(ctx, listing.UserID.String())
	ctx = e.logg.WithListingID(ctx, listing.ID.String())
	ctx = e.logg.WithExternalID(ctx, listing.ExternalID)

	// Fee precedence: settings, then the listing's own recorded fee, then
	// the package default inside MinimumPrice.
	if settings.FeeRate == nil && listing.MarketplaceFeePercentage != nil {
		fee := decimal.NewFromFloat(*listing.MarketplaceFeePercentage)
		settings.FeeRate = &fee
	}

	minimumPrice := MinimumPrice(sourceCost, shippingCost, settings)
	outcome := Outcome{
		ListingID:    listing.ID,
		MinimumPrice: minimumPrice,
		OldPrice:     listing.Price,
	}

	if listing.Price.GreaterThanOrEqual(minimumPrice) {
		outcome.FloorIntact = true
		return outcome
	}

	if !settings.AutoReprice {
		if err := e.store.ApplyRepriceUpdate(ctx, listing.ID, listings.RepriceUpdate{MinimumResellPrice: minimumPrice}); err != nil {
			outcome.Err = err
			e.logg.Error(ctx, "record minimum resell price failed", err)
			return outcome
		}
		outcome.NotificationOnly = true
		return outcome
	}

	e.pushFloor(ctx, source, listing, &outcome)
	return outcome
}

// EnforceFloor re-pushes a previously recorded floor when the stored price
// has drifted back below it, typically after a reconciliation pulled a lower
// external price. Listings without a recorded floor are left alone.
func (e *Engine) EnforceFloor(ctx context.Context, source PriceWriter, listing models.Listing) Outcome {
	ctx = e.logg.WithUserID(ctx, listing.UserID.String())
	ctx = e.logg.WithListingID(ctx, listing.ID.String())
	ctx = e.logg.WithExternalID(ctx, listing.ExternalID)

	outcome := Outcome{
		ListingID: listing.ID,
		OldPrice:  listing.Price,
	}
	if listing.MinimumResellPrice == nil {
		outcome.FloorIntact = true
		return outcome
	}
	outcome.MinimumPrice = *listing.MinimumResellPrice

	if listing.Price.GreaterThanOrEqual(outcome.MinimumPrice) {
		outcome.FloorIntact = true
		return outcome
	}

	e.pushFloor(ctx, source, listing, &outcome)
	return outcome
}

// pushFloor writes outcome.MinimumPrice externally and then to the store.
// External write goes first so a failure cannot leave the stored price
// claiming a correction the marketplace never saw.
func (e *Engine) pushFloor(ctx context.Context, source PriceWriter, listing models.Listing, outcome *Outcome) {
	minimumPrice := outcome.MinimumPrice

	if err := source.WritePrice(ctx, listing.ExternalID, minimumPrice); err != nil {
		outcome.Err = err
		e.appendPriceError(ctx, listing, minimumPrice, err)
		return
	}

	update := listings.RepriceUpdate{
		Price:              &minimumPrice,
		MinimumResellPrice: minimumPrice,
	}
	if err := e.store.ApplyRepriceUpdate(ctx, listing.ID, update); err != nil {
		outcome.Err = err
		e.appendPriceError(ctx, listing, minimumPrice, err)
		return
	}

	outcome.Applied = true
	outcome.NewPrice = minimumPrice

	difference := minimumPrice.Sub(listing.Price)
	percentage := decimal.Zero
	if !listing.Price.IsZero() {
		percentage = difference.Div(listing.Price).Mul(hundred).Round(2)
	}

	listingID := listing.ID
	e.audit.Append(ctx, audit.Entry{
		UserID:    listing.UserID,
		Type:      enums.AuditRepricingApplied,
		ListingID: &listingID,
		ProductID: listing.ProductID,
		Data: map[string]any{
			"external_id":       listing.ExternalID,
			"old_price":         listing.Price.StringFixed(2),
			"new_price":         minimumPrice.StringFixed(2),
			"price_difference":  difference.StringFixed(2),
			"percentage_change": percentage.String(),
		},
	})
}

// BatchReprice evaluates each item independently; one listing's failure
// never blocks the rest. The aggregate is logged as a single bulk event.
func (e *Engine) BatchReprice(ctx context.Context, userID uuid.UUID, source PriceWriter, items []BatchItem, settings Settings) Summary {
	var summary Summary
	for _, batchItem := range items {
		outcome := e.Reprice(ctx, source, batchItem.Listing, batchItem.SourceCost, batchItem.ShippingCost, settings)
		summary.Processed++
		switch {
		case outcome.Err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, batchItem.Listing.ExternalID+": "+outcome.Err.Error())
		case outcome.Applied:
			summary.Updated++
		}
	}

	e.audit.Append(ctx, audit.Entry{
		UserID: userID,
		Type:   enums.AuditBulkRepricing,
		Data: map[string]any{
			"processed": summary.Processed,
			"updated":   summary.Updated,
			"failed":    summary.Failed,
		},
	})
	return summary
}

func (e *Engine) appendPriceError(ctx context.Context, listing models.Listing, attempted decimal.Decimal, cause error) {
	e.logg.Error(ctx, "price update failed", cause)
	listingID := listing.ID
	e.audit.Append(ctx, audit.Entry{
		UserID:    listing.UserID,
		Type:      enums.AuditPriceUpdateError,
		ListingID: &listingID,
		ProductID: listing.ProductID,
		Data: map[string]any{
			"external_id":     listing.ExternalID,
			"attempted_price": attempted.StringFixed(2),
			"error":           cause.Error(),
		},
	})
}
