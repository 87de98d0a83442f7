package enums

// AuditEventType labels entries in the append-only audit log.
type AuditEventType string

const (
	AuditListingCreated   AuditEventType = "listing_created"
	AuditListingSynced    AuditEventType = "listing_synced"
	AuditListingNotFound  AuditEventType = "listing_not_found"
	AuditStockUpdated     AuditEventType = "stock_updated"
	AuditRepricingApplied AuditEventType = "repricing_applied"
	AuditPriceUpdateError AuditEventType = "price_update_error"
	AuditBulkRepricing    AuditEventType = "bulk_repricing"
	AuditSyncCompleted    AuditEventType = "sync_completed"
	AuditSyncFailed       AuditEventType = "sync_failed"
)

// String implements fmt.Stringer.
func (t AuditEventType) String() string {
	return string(t)
}
