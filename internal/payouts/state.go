package payouts

import (
	"fmt"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
)

// transitions is the single source of truth for the payout lifecycle.
// HOLD rows enter via settlement; the scheduler or a seller request
// releases them; operators drive the rest.
var transitions = map[enums.PayoutStatus][]enums.PayoutStatus{
	enums.PayoutStatusHold:       {enums.PayoutStatusPending, enums.PayoutStatusFailed},
	enums.PayoutStatusPending:    {enums.PayoutStatusProcessing, enums.PayoutStatusCompleted, enums.PayoutStatusFailed},
	enums.PayoutStatusProcessing: {enums.PayoutStatusCompleted},
	enums.PayoutStatusCompleted:  {},
	enums.PayoutStatusFailed:     {},
}

// CanTransition reports whether the payout lifecycle allows from -> to.
func CanTransition(from, to enums.PayoutStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a state-conflict error when the move is not allowed.
func ValidateTransition(from, to enums.PayoutStatus) error {
	if !from.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", from))
	}
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", to))
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move payout from %s to %s", from, to))
	}
	return nil
}
