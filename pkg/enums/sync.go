package enums

import "fmt"

// SyncRunStatus tracks the per-(user, marketplace) reconciliation state
// machine: idle -> syncing -> {completed | error}.
type SyncRunStatus string

const (
	SyncRunIdle      SyncRunStatus = "idle"
	SyncRunSyncing   SyncRunStatus = "syncing"
	SyncRunCompleted SyncRunStatus = "completed"
	SyncRunError     SyncRunStatus = "error"
)

var validSyncRunStatuses = []SyncRunStatus{
	SyncRunIdle,
	SyncRunSyncing,
	SyncRunCompleted,
	SyncRunError,
}

// String implements fmt.Stringer.
func (s SyncRunStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncRunStatus.
func (s SyncRunStatus) IsValid() bool {
	for _, candidate := range validSyncRunStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncRunStatus converts raw input into a SyncRunStatus.
func ParseSyncRunStatus(value string) (SyncRunStatus, error) {
	for _, candidate := range validSyncRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync run status %q", value)
}
