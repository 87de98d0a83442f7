package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/internal/repricing"
	syncengine "github.com/rafacastellanos/listkeeper-backend/internal/sync"
	"github.com/rafacastellanos/listkeeper-backend/pkg/db/models"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
)

// RepricingCandidateSource lists the listings a floor sweep inspects.
type RepricingCandidateSource interface {
	ListForRepricing(ctx context.Context, userID uuid.UUID, marketplace enums.MarketplaceType) ([]models.Listing, error)
}

// FloorEnforcer re-applies a listing's recorded price floor.
type FloorEnforcer interface {
	EnforceFloor(ctx context.Context, source repricing.PriceWriter, listing models.Listing) repricing.Outcome
}

// FloorSweepJob walks every auto-reprice connection and re-pushes floors on
// listings whose price drifted below their recorded minimum, which happens
// when a reconciliation pulls a lower price from the marketplace.
type FloorSweepJob struct {
	connections ConnectionSource
	candidates  RepricingCandidateSource
	sources     syncengine.SourceFactory
	enforcer    FloorEnforcer
	logg        *logger.Logger
}

// NewFloorSweepJob wires the job.
func NewFloorSweepJob(connections ConnectionSource, candidates RepricingCandidateSource, sources syncengine.SourceFactory, enforcer FloorEnforcer, logg *logger.Logger) (*FloorSweepJob, error) {
	if connections == nil {
		return nil, errors.New("connection source is required")
	}
	if candidates == nil {
		return nil, errors.New("candidate source is required")
	}
	if sources == nil {
		return nil, errors.New("source factory is required")
	}
	if enforcer == nil {
		return nil, errors.New("floor enforcer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &FloorSweepJob{
		connections: connections,
		candidates:  candidates,
		sources:     sources,
		enforcer:    enforcer,
		logg:        logg,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *FloorSweepJob) Name() string {
	return "repricing_floor_sweep"
}

// Run sweeps each auto-reprice connection in turn. Per-listing failures are
// audited by the engine and only counted here; a connection fails the sweep
// only when its listings or source cannot be resolved at all.
func (j *FloorSweepJob) Run(ctx context.Context) error {
	conns, err := j.connections.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled connections: %w", err)
	}

	var runErrs error
	for _, conn := range conns {
		if !conn.AutoRepriceEnabled {
			continue
		}
		if err := j.sweepConnection(ctx, conn); err != nil {
			runErrs = multierr.Append(runErrs, fmt.Errorf("sweep %s/%s: %w", conn.UserID, conn.Marketplace, err))
		}
	}
	return runErrs
}

func (j *FloorSweepJob) sweepConnection(ctx context.Context, conn models.MarketplaceConnection) error {
	ctx = j.logg.WithUserID(ctx, conn.UserID.String())
	ctx = j.logg.WithMarketplace(ctx, conn.Marketplace.String())

	creds := marketplace.Credentials{
		UserID:      conn.UserID,
		Marketplace: conn.Marketplace,
		AccessToken: conn.AccessToken,
	}
	if conn.LocationID != nil {
		creds.LocationID = *conn.LocationID
	}

	source, err := j.sources.SourceFor(ctx, creds)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}

	rows, err := j.candidates.ListForRepricing(ctx, conn.UserID, conn.Marketplace)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}

	var enforced, failed int
	for _, listing := range rows {
		outcome := j.enforcer.EnforceFloor(ctx, source, listing)
		switch {
		case outcome.Err != nil:
			failed++
		case outcome.Applied:
			enforced++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"inspected": len(rows),
		"enforced":  enforced,
		"failed":    failed,
	}), "floor sweep finished")
	return nil
}
