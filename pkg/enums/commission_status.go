package enums

import "fmt"

// CommissionStatus maps to the commission_status enum in Postgres.
type CommissionStatus string

const (
	CommissionStatusCalculated CommissionStatus = "calculated"
	CommissionStatusPaid       CommissionStatus = "paid"
	CommissionStatusRefunded   CommissionStatus = "refunded"
)

var validCommissionStatuses = []CommissionStatus{
	CommissionStatusCalculated,
	CommissionStatusPaid,
	CommissionStatusRefunded,
}

// AllCommissionStatuses returns every canonical status, used when
// summaries must report zero counts for unseen statuses.
func AllCommissionStatuses() []CommissionStatus {
	statuses := make([]CommissionStatus, len(validCommissionStatuses))
	copy(statuses, validCommissionStatuses)
	return statuses
}

// String implements fmt.Stringer.
func (s CommissionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CommissionStatus.
func (s CommissionStatus) IsValid() bool {
	for _, candidate := range validCommissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCommissionStatus converts raw input into a CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	for _, candidate := range validCommissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission status %q", value)
}
