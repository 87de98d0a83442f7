package sync

import (
	"context"
	"errors"

	"github.com/rafacastellanos/listkeeper-backend/internal/audit"
	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	"github.com/rafacastellanos/listkeeper-backend/pkg/logger"
	"github.com/rafacastellanos/listkeeper-backend/pkg/metrics"
)

// SourceFactory resolves a marketplace catalog source from one user's
// credentials.
type SourceFactory interface {
	SourceFor(ctx context.Context, creds marketplace.Credentials) (marketplace.CatalogSource, error)
}

// RunResult is what the caller of RunSync gets back. Success reflects
// whether the run completed, not whether every item succeeded: partial
// failure shows up in Errors without flipping Success.
type RunResult struct {
	Success     bool
	Added       int
	Updated     int
	NotFound    int
	Errors      int
	TotalSynced int
}

// Service coordinates one reconciliation run end to end: status
// transitions, the synchronous reconcile pass, and the detached inventory
// pass.
type Service interface {
	RunSync(ctx context.Context, creds marketplace.Credentials) (RunResult, error)
}

type service struct {
	reconciler *Reconciler
	worker     *InventoryWorker
	statuses   StatusStore
	sources    SourceFactory
	audit      audit.Service
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
}

// NewService wires the orchestrator. Metrics may be nil when no registry is
// attached (tests, one-shot tooling).
func NewService(
	reconciler *Reconciler,
	worker *InventoryWorker,
	statuses StatusStore,
	sources SourceFactory,
	auditSvc audit.Service,
	logg *logger.Logger,
	syncMetrics *metrics.SyncMetrics,
) (Service, error) {
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	if worker == nil {
		return nil, errors.New("inventory worker is required")
	}
	if statuses == nil {
		return nil, errors.New("status store is required")
	}
	if sources == nil {
		return nil, errors.New("source factory is required")
	}
	if auditSvc == nil {
		return nil, errors.New("audit service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		reconciler: reconciler,
		worker:     worker,
		statuses:   statuses,
		sources:    sources,
		audit:      auditSvc,
		logg:       logg,
		metrics:    syncMetrics,
	}, nil
}

// RunSync validates the credentials, marks the key syncing, runs the
// reconciler, records the terminal state, and on success spawns the
// detached inventory pass before returning. Concurrent runs for the same
// key are the caller's responsibility to avoid; the syncing state is
// observable so schedulers can skip an in-progress key.
func (s *service) RunSync(ctx context.Context, creds marketplace.Credentials) (RunResult, error) {
	if err := creds.Validate(); err != nil {
		// Precondition failures abort before any writes, including the
		// status record.
		return RunResult{}, err
	}

	ctx = s.logg.WithUserID(ctx, creds.UserID.String())
	ctx = s.logg.WithMarketplace(ctx, creds.Marketplace.String())

	source, err := s.sources.SourceFor(ctx, creds)
	if err != nil {
		return RunResult{}, err
	}

	if err := s.statuses.MarkSyncing(ctx, creds.UserID, creds.Marketplace); err != nil {
		return RunResult{}, err
	}
	s.logg.Info(ctx, "sync run started")

	result, err := s.reconciler.Reconcile(ctx, creds.UserID, creds.Marketplace, source)
	if err != nil {
		s.failRun(ctx, creds, result, err)
		return runResultFrom(result, false), err
	}

	if markErr := s.statuses.MarkCompleted(ctx, creds.UserID, creds.Marketplace, result.TotalSynced()); markErr != nil {
		s.logg.Error(ctx, "mark completed failed", markErr)
	}
	s.recordOutcomes(creds.Marketplace, result)
	s.audit.Append(ctx, audit.Entry{
		UserID: creds.UserID,
		Type:   enums.AuditSyncCompleted,
		Data: map[string]any{
			"marketplace": creds.Marketplace.String(),
			"added":       result.Added,
			"updated":     result.Updated,
			"not_found":   result.NotFound,
			"errors":      result.Errors,
		},
	})

	if len(result.Touched) > 0 {
		s.worker.Spawn(ctx, creds.UserID, creds.Marketplace, source, result.Touched)
	}

	s.logg.Info(ctx, "sync run completed")
	return runResultFrom(result, true), nil
}

func (s *service) failRun(ctx context.Context, creds marketplace.Credentials, result Result, cause error) {
	if markErr := s.statuses.MarkError(ctx, creds.UserID, creds.Marketplace, cause.Error()); markErr != nil {
		s.logg.Error(ctx, "mark error failed", markErr)
	}
	s.audit.Append(ctx, audit.Entry{
		UserID: creds.UserID,
		Type:   enums.AuditSyncFailed,
		Data: map[string]any{
			"marketplace": creds.Marketplace.String(),
			"error":       cause.Error(),
		},
	})
	s.logg.Error(ctx, "sync run failed", cause)
}

func (s *service) recordOutcomes(mkt enums.MarketplaceType, result Result) {
	if s.metrics == nil {
		return
	}
	s.metrics.AddListings(mkt.String(), "added", result.Added)
	s.metrics.AddListings(mkt.String(), "updated", result.Updated)
	s.metrics.AddListings(mkt.String(), "not_found", result.NotFound)
	s.metrics.AddListings(mkt.String(), "error", result.Errors)
}

func runResultFrom(result Result, success bool) RunResult {
	return RunResult{
		Success:     success,
		Added:       result.Added,
		Updated:     result.Updated,
		NotFound:    result.NotFound,
		Errors:      result.Errors,
		TotalSynced: result.TotalSynced(),
	}
}
