package enums

import "fmt"

// MarketplaceType identifies the external catalog a listing belongs to.
type MarketplaceType string

const (
	MarketplaceSquare MarketplaceType = "square"
	MarketplaceEbay   MarketplaceType = "ebay"
	MarketplaceEtsy   MarketplaceType = "etsy"
)

var validMarketplaceTypes = []MarketplaceType{
	MarketplaceSquare,
	MarketplaceEbay,
	MarketplaceEtsy,
}

// String implements fmt.Stringer.
func (m MarketplaceType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MarketplaceType.
func (m MarketplaceType) IsValid() bool {
	for _, candidate := range validMarketplaceTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMarketplaceType converts raw input into a MarketplaceType.
func ParseMarketplaceType(value string) (MarketplaceType, error) {
	for _, candidate := range validMarketplaceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid marketplace type %q", value)
}
