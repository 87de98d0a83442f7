package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	syncengine "github.com/rafacastellanos/listkeeper-backend/internal/sync"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// ConnectionSource lists the marketplace connections eligible for a sweep.
type ConnectionSource interface {
	ListEnabled(ctx context.Context) ([]models.MarketplaceConnection, error)
}

// FullSyncJob reconciles every enabled marketplace connection. One
// connection's failure does not stop the sweep; failures are joined into
// the job error so the failed sweep is visible in job metrics.
type FullSyncJob struct {
	connections ConnectionSource
	syncer      syncengine.Service
	logg        *logger.Logger
}

// NewFullSyncJob wires the job.
func NewFullSyncJob(connections ConnectionSource, syncer syncengine.Service, logg *logger.Logger) (*FullSyncJob, error) {
	if connections == nil {
		return nil, errors.New("connection source is required")
	}
	if syncer == nil {
		return nil, errors.New("sync service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &FullSyncJob{connections: connections, syncer: syncer, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *FullSyncJob) Name() string {
	return "marketplace_full_sync"
}

// Run syncs each enabled connection in turn.
func (j *FullSyncJob) Run(ctx context.Context) error {
	conns, err := j.connections.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled connections: %w", err)
	}

	var runErrs error
	for _, conn := range conns {
		creds := marketplace.Credentials{
			UserID:      conn.UserID,
			Marketplace: conn.Marketplace,
			AccessToken: conn.AccessToken,
		}
		if conn.LocationID != nil {
			creds.LocationID = *conn.LocationID
		}

		result, err := j.syncer.RunSync(ctx, creds)
		if err != nil {
			runErrs = multierr.Append(runErrs, fmt.Errorf("sync %s/%s: %w", conn.UserID, conn.Marketplace, err))
			continue
		}

		connCtx := j.logg.WithUserID(ctx, conn.UserID.String())
		connCtx = j.logg.WithMarketplace(connCtx, conn.Marketplace.String())
		j.logg.Info(j.logg.WithFields(connCtx, map[string]any{
			"added":     result.Added,
			"updated":   result.Updated,
			"not_found": result.NotFound,
			"errors":    result.Errors,
		}), "connection synced")
	}
	return runErrs
}
