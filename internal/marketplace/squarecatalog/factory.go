package squarecatalog

import (
	"context"
	"fmt"

	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// Factory builds per-credential catalog sources. Square is the only
// marketplace wired today; the switch is where ebay/etsy adapters land.
type Factory struct {
	environment string
	logg        *logger.Logger
}

// NewFactory builds a factory targeting the given Square environment.
func NewFactory(environment string, logg *logger.Logger) *Factory {
	return &Factory{environment: environment, logg: logg}
}

// SourceFor resolves the catalog source for one user's credentials.
func (f *Factory) SourceFor(ctx context.Context, creds marketplace.Credentials) (marketplace.CatalogSource, error) {
	switch creds.Marketplace {
	case enums.MarketplaceSquare:
		return New(ctx, Options{
			AccessToken: creds.AccessToken,
			Environment: f.environment,
			LocationID:  creds.LocationID,
		}, f.logg)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("marketplace %q has no catalog source", creds.Marketplace))
	}
}
