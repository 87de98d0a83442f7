package enums

import "fmt"

// ListingStatus mirrors the marketplace-side active/inactive state.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

var validListingStatuses = []ListingStatus{
	ListingStatusActive,
	ListingStatusInactive,
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

// ListingSyncStatus records the outcome of the last reconciliation pass for
// one listing. A not_found listing was absent from the latest snapshot; the
// record itself is never deleted.
type ListingSyncStatus string

const (
	ListingSyncSynced   ListingSyncStatus = "synced"
	ListingSyncNotFound ListingSyncStatus = "not_found"
)

var validListingSyncStatuses = []ListingSyncStatus{
	ListingSyncSynced,
	ListingSyncNotFound,
}

// String implements fmt.Stringer.
func (s ListingSyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingSyncStatus.
func (s ListingSyncStatus) IsValid() bool {
	for _, candidate := range validListingSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
