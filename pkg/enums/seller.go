package enums

import "fmt"

// SellerType discriminates the seller subtype persisted in one table.
type SellerType string

const (
	SellerTypeIndividual SellerType = "individual"
	SellerTypeCompany    SellerType = "company"
)

var validSellerTypes = []SellerType{
	SellerTypeIndividual,
	SellerTypeCompany,
}

// IsValid reports whether the value is a known SellerType.
func (t SellerType) IsValid() bool {
	for _, candidate := range validSellerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSellerType converts raw input into a SellerType.
func ParseSellerType(value string) (SellerType, error) {
	for _, candidate := range validSellerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller type %q", value)
}

// SellerStatus tracks the seller lifecycle independent of payments.
type SellerStatus string

const (
	SellerStatusOnboarding  SellerStatus = "onboarding"
	SellerStatusActive      SellerStatus = "active"
	SellerStatusSuspended   SellerStatus = "suspended"
	SellerStatusDeactivated SellerStatus = "deactivated"
)

var validSellerStatuses = []SellerStatus{
	SellerStatusOnboarding,
	SellerStatusActive,
	SellerStatusSuspended,
	SellerStatusDeactivated,
}

// IsValid reports whether the value is a known SellerStatus.
func (s SellerStatus) IsValid() bool {
	for _, candidate := range validSellerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerStatus converts raw input into a SellerStatus.
func ParseSellerStatus(value string) (SellerStatus, error) {
	for _, candidate := range validSellerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller status %q", value)
}
