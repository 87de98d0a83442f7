package squarecatalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqcatalog "github.com/square/square-go-sdk/catalog"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLoggerRequired      = errors.New("square logger is required")
	errInvalidSquareEnv    = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Options configure the Square-backed catalog source.
type Options struct {
	AccessToken string
	Environment string
	LocationID  string
}

// Source adapts the Square Catalog and Inventory APIs to the narrow
// CatalogSource surface the sync engine consumes, with centralized logging
// and error mapping.
type Source struct {
	sdk         *sqclient.Client
	environment string
	locationID  string
	logger      *logger.Logger
}

var _ marketplace.CatalogSource = (*Source)(nil)

// New initializes the Square catalog source and validates its options.
func New(ctx context.Context, opts Options, logg *logger.Logger) (*Source, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(opts.Environment)
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(opts.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURLs[env]),
		sqoption.WithToken(accessToken),
	)

	s := &Source{
		sdk:         sdk,
		environment: env,
		locationID:  strings.TrimSpace(opts.LocationID),
		logger:      logg,
	}

	logg.Info(ctx, "square catalog source initialized")
	return s, nil
}

// Marketplace identifies this source.
func (s *Source) Marketplace() enums.MarketplaceType {
	return enums.MarketplaceSquare
}

// FetchListingsPage returns one cursor page of the Square item catalog.
func (s *Source) FetchListingsPage(ctx context.Context, pageToken string, limit int) (marketplace.Page, error) {
	req := &sq.SearchCatalogObjectsRequest{
		ObjectTypes: []sq.CatalogObjectType{sq.CatalogObjectTypeItem},
	}
	if pageToken != "" {
		req.Cursor = sq.String(pageToken)
	}
	if limit > 0 {
		req.Limit = sq.Int(limit)
	}
	s.log(ctx, "request", "search_catalog", map[string]any{"cursor": pageToken, "limit": limit})

	resp, err := s.sdk.Catalog.Search(ctx, req)
	if err != nil {
		s.log(ctx, "error", "search_catalog", map[string]any{"error": err.Error()})
		return marketplace.Page{}, s.mapError(err, "search catalog")
	}

	page := marketplace.Page{NextToken: stringValue(resp.GetCursor())}
	for _, obj := range resp.GetObjects() {
		item, ok := snapshotItemFromObject(obj)
		if !ok {
			continue
		}
		page.Items = append(page.Items, item)
	}

	s.log(ctx, "response", "search_catalog", map[string]any{
		"items":       len(page.Items),
		"next_cursor": page.NextToken,
	})
	return page, nil
}

// FetchStock reads the authoritative inventory count for one catalog object.
func (s *Source) FetchStock(ctx context.Context, externalID string) (int, error) {
	req := &sq.BatchGetInventoryCountsRequest{
		CatalogObjectIDs: []string{externalID},
	}
	if s.locationID != "" {
		req.LocationIDs = []string{s.locationID}
	}
	s.log(ctx, "request", "get_inventory_count", map[string]any{"catalog_object_id": externalID})

	resp, err := s.sdk.Inventory.BatchGetCounts(ctx, req)
	if err != nil {
		s.log(ctx, "error", "get_inventory_count", map[string]any{"error": err.Error()})
		return 0, s.mapError(err, "get inventory count")
	}

	total, err := sumQuantities(resp.GetCounts())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse inventory quantity")
	}

	s.log(ctx, "response", "get_inventory_count", map[string]any{
		"catalog_object_id": externalID,
		"quantity":          total,
	})
	return total, nil
}

// WritePrice updates the base price on every variation of the catalog item.
// Square requires an object-version-aware upsert, so the current object is
// read first.
func (s *Source) WritePrice(ctx context.Context, externalID string, price decimal.Decimal) error {
	s.log(ctx, "request", "write_price", map[string]any{
		"catalog_object_id": externalID,
		"price":             price.StringFixed(2),
	})

	getResp, err := s.sdk.Catalog.Object.Get(ctx, &sqcatalog.GetObjectRequest{ObjectID: externalID})
	if err != nil {
		s.log(ctx, "error", "write_price", map[string]any{"error": err.Error()})
		return s.mapError(err, "get catalog object")
	}

	obj := getResp.GetObject()
	if obj == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "catalog object not found")
	}

	amount := price.Mul(decimal.NewFromInt(100)).IntPart()
	applyPriceToObject(obj, amount)

	req := &sqcatalog.UpsertCatalogObjectRequest{
		IdempotencyKey: fmt.Sprintf("price-%s", uuid.NewString()),
		Object:         obj,
	}
	if _, err := s.sdk.Catalog.Object.Upsert(ctx, req); err != nil {
		s.log(ctx, "error", "write_price", map[string]any{"error": err.Error()})
		return s.mapError(err, "upsert catalog object")
	}

	s.log(ctx, "response", "write_price", map[string]any{"catalog_object_id": externalID})
	return nil
}

// sumQuantities totals per-location counts. Square reports decimal
// quantities for measured-unit items; the sum is rounded to the nearest
// whole count so 0.9 in stock is not read as empty.
func sumQuantities(counts []*sq.InventoryCount) (int, error) {
	var sum float64
	for _, count := range counts {
		if count == nil {
			continue
		}
		quantity := stringValue(count.GetQuantity())
		if quantity == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(quantity, 64)
		if err != nil {
			return 0, err
		}
		sum += parsed
	}
	return int(math.Round(sum)), nil
}

func snapshotItemFromObject(obj *sq.CatalogObject) (marketplace.SnapshotItem, bool) {
	if obj == nil {
		return marketplace.SnapshotItem{}, false
	}
	itemWrapper := obj.GetItem()
	if itemWrapper == nil {
		return marketplace.SnapshotItem{}, false
	}
	itemData := itemWrapper.GetItemData()
	if itemData == nil {
		return marketplace.SnapshotItem{}, false
	}

	item := marketplace.SnapshotItem{
		ExternalID: itemWrapper.GetID(),
		Title:      stringValue(itemData.GetName()),
		Status:     enums.ListingStatusActive,
	}
	if deleted := itemWrapper.GetIsDeleted(); deleted != nil && *deleted {
		item.Status = enums.ListingStatusInactive
	}

	for _, variation := range itemData.GetVariations() {
		if variation == nil {
			continue
		}
		varWrapper := variation.GetItemVariation()
		if varWrapper == nil {
			continue
		}
		varData := varWrapper.GetItemVariationData()
		if varData == nil {
			continue
		}
		if sku := stringValue(varData.GetSku()); sku != "" && item.SKU == "" {
			item.SKU = sku
		}
		if money := varData.GetPriceMoney(); money != nil && money.GetAmount() != nil {
			item.Price = decimal.NewFromInt(*money.GetAmount()).Div(decimal.NewFromInt(100))
			break
		}
	}

	if item.ExternalID == "" {
		return marketplace.SnapshotItem{}, false
	}
	return item, true
}

func applyPriceToObject(obj *sq.CatalogObject, amountCents int64) {
	itemWrapper := obj.GetItem()
	if itemWrapper == nil {
		return
	}
	itemData := itemWrapper.GetItemData()
	if itemData == nil {
		return
	}
	for _, variation := range itemData.GetVariations() {
		if variation == nil {
			continue
		}
		varWrapper := variation.GetItemVariation()
		if varWrapper == nil {
			continue
		}
		varData := varWrapper.GetItemVariationData()
		if varData == nil {
			continue
		}
		varData.PriceMoney = &sq.Money{
			Amount:   sq.Int64(amountCents),
			Currency: sq.CurrencyUsd.Ptr(),
		}
	}
}

func (s *Source) log(ctx context.Context, phase, op string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = s.redact(k, v)
	}
	ctx = s.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		s.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		s.logger.Debug(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (s *Source) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (s *Source) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(domainCodeForStatus(apiErr.StatusCode), err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidSquareEnv
	}
}
