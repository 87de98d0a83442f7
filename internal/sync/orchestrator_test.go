package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/internal/marketplace"
	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
)

func newTestService(t *testing.T, store *fakeStore, auditSink *fakeAudit, statuses *fakeStatusStore, source *fakeSource) Service {
	t.Helper()

	reconciler := newTestReconciler(t, store, auditSink)
	worker, _ := newTestWorker(t, store, auditSink, 0)

	svc, err := NewService(reconciler, worker, statuses, &fakeSourceFactory{source: source}, auditSink, testLogger(), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testCredentials(userID uuid.UUID) marketplace.Credentials {
	return marketplace.Credentials{
		UserID:      userID,
		Marketplace: enums.MarketplaceSquare,
		AccessToken: "sandbox-token",
	}
}

func TestRunSyncHappyPath(t *testing.T) {
	store := newFakeStore()
	auditSink := &fakeAudit{}
	statuses := &fakeStatusStore{}

	userID := uuid.New()
	existing := store.seed(userID, enums.MarketplaceSquare, "X1", nil)

	source := newFakeSource([]marketplace.SnapshotItem{
		item("X1", "Widget", "12.50", 3),
		item("X2", "Gadget", "8.00", 1),
	})
	source.stock["X1"] = 4
	source.stock["X2"] = 2

	svc := newTestService(t, store, auditSink, statuses, source)

	result, err := svc.RunSync(context.Background(), testCredentials(userID))
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Added != 1 || result.Updated != 1 || result.TotalSynced != 2 {
		t.Fatalf("result = %+v", result)
	}

	if len(statuses.transitions) != 2 ||
		statuses.transitions[0] != enums.SyncRunSyncing ||
		statuses.transitions[1] != enums.SyncRunCompleted {
		t.Fatalf("transitions = %v", statuses.transitions)
	}
	if statuses.total != 2 {
		t.Fatalf("total listings = %d", statuses.total)
	}
	if got := auditSink.ofType(enums.AuditSyncCompleted); len(got) != 1 {
		t.Fatalf("expected 1 sync_completed event, got %d", len(got))
	}

	// The inventory pass runs detached; wait for it to land.
	deadline := time.After(2 * time.Second)
	for {
		if got := store.get(existing.ID); got.CurrentStockLevel == 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("detached inventory pass never wrote stock")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunSyncRejectsInvalidCredentialsBeforeAnyWrite(t *testing.T) {
	store := newFakeStore()
	auditSink := &fakeAudit{}
	statuses := &fakeStatusStore{}
	svc := newTestService(t, store, auditSink, statuses, newFakeSource())

	_, err := svc.RunSync(context.Background(), marketplace.Credentials{
		UserID:      uuid.New(),
		Marketplace: enums.MarketplaceSquare,
		AccessToken: "",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("error = %v", err)
	}

	if len(statuses.transitions) != 0 {
		t.Fatalf("status written before precondition check: %v", statuses.transitions)
	}
}

func TestRunSyncFetchFailureMarksError(t *testing.T) {
	store := newFakeStore()
	auditSink := &fakeAudit{}
	statuses := &fakeStatusStore{}

	source := newFakeSource([]marketplace.SnapshotItem{item("X1", "Widget", "12.50", 3)})
	source.failPage = 1
	svc := newTestService(t, store, auditSink, statuses, source)

	userID := uuid.New()
	result, err := svc.RunSync(context.Background(), testCredentials(userID))
	if err == nil {
		t.Fatal("expected run failure")
	}
	if result.Success {
		t.Fatal("result must not claim success")
	}

	if len(statuses.transitions) != 2 ||
		statuses.transitions[0] != enums.SyncRunSyncing ||
		statuses.transitions[1] != enums.SyncRunError {
		t.Fatalf("transitions = %v", statuses.transitions)
	}
	if statuses.lastError == "" {
		t.Fatal("error message not recorded")
	}
	if got := auditSink.ofType(enums.AuditSyncFailed); len(got) != 1 {
		t.Fatalf("expected 1 sync_failed event, got %d", len(got))
	}
}

func TestRunSyncPartialFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	auditSink := &fakeAudit{}
	statuses := &fakeStatusStore{}

	store.failCreateFor["X2"] = pkgerrors.New(pkgerrors.CodeConflict, "constraint violation")
	source := newFakeSource([]marketplace.SnapshotItem{
		item("X1", "Widget", "12.50", 3),
		item("X2", "Doomed", "5.00", 1),
	})
	svc := newTestService(t, store, auditSink, statuses, source)

	result, err := svc.RunSync(context.Background(), testCredentials(uuid.New()))
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if !result.Success {
		t.Fatal("per-item failures must not fail the run")
	}
	if result.Errors != 1 || result.Added != 1 {
		t.Fatalf("result = %+v", result)
	}
	if statuses.transitions[len(statuses.transitions)-1] != enums.SyncRunCompleted {
		t.Fatalf("transitions = %v", statuses.transitions)
	}
}
