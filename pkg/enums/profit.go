package enums

import "fmt"

// ProfitPolicyType selects how the configured profit value is applied on top
// of total cost when computing a minimum resale price.
type ProfitPolicyType string

const (
	ProfitPolicyDollar     ProfitPolicyType = "dollar"
	ProfitPolicyPercentage ProfitPolicyType = "percentage"
)

var validProfitPolicyTypes = []ProfitPolicyType{
	ProfitPolicyDollar,
	ProfitPolicyPercentage,
}

// String implements fmt.Stringer.
func (p ProfitPolicyType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProfitPolicyType.
func (p ProfitPolicyType) IsValid() bool {
	for _, candidate := range validProfitPolicyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProfitPolicyType converts raw input into a ProfitPolicyType.
func ParseProfitPolicyType(value string) (ProfitPolicyType, error) {
	for _, candidate := range validProfitPolicyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid profit policy type %q", value)
}
