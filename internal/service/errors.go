package service

import "errors"

// Sentinel errors for the ledger and tip engine. All of these are expected,
// recoverable-by-caller conditions; handlers translate them into the
// corresponding HTTP status. Match with errors.Is.
var (
	// State conflicts — the caller must take a different action, not retry.
	ErrOpeningAlreadySet     = errors.New("opening balance already set; use edit")
	ErrSessionAlreadyClosed  = errors.New("session already closed")
	ErrSessionClosed         = errors.New("session is closed")
	ErrOpeningNotSet         = errors.New("opening balance not set")
	ErrDuplicateDistribution = errors.New("distribution already exists for sale")
	ErrPayoutAlreadyPaid     = errors.New("payout is not pending")
	ErrDuplicateAdjustment   = errors.New("tip adjustment already recorded for sale")

	// Validation — rejected before any write.
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrReasonRequired    = errors.New("a reason of at least 5 characters is required")
	ErrNotReduced        = errors.New("tip was not reduced; nothing to justify")
	ErrNoAllocation      = errors.New("manual percentages sum to zero")
	ErrNoParticipants    = errors.New("no employees selected for distribution")
	ErrInvalidReasonType = errors.New("unknown adjustment reason type")
	ErrInvalidEntryKind  = errors.New("unknown ledger entry kind")

	// Integrity — a defect, not a user error. Logged at error severity and
	// never persisted.
	ErrReconciliation = errors.New("distribution does not reconcile with total tip")

	// Lookups.
	ErrSessionNotFound      = errors.New("cash session not found")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrDistributionNotFound = errors.New("distribution not found")
	ErrPayoutNotFound       = errors.New("payout not found")
)

// IsConflict reports whether err is a state conflict the UI should present
// as an "already done" condition rather than a failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOpeningAlreadySet) ||
		errors.Is(err, ErrSessionAlreadyClosed) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrDuplicateDistribution) ||
		errors.Is(err, ErrDuplicateAdjustment) ||
		errors.Is(err, ErrPayoutAlreadyPaid)
}

// IsValidation reports whether err was rejected before any write occurred.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrNotReduced) ||
		errors.Is(err, ErrNoAllocation) ||
		errors.Is(err, ErrNoParticipants) ||
		errors.Is(err, ErrInvalidReasonType) ||
		errors.Is(err, ErrInvalidEntryKind) ||
		errors.Is(err, ErrOpeningNotSet)
}

// IsNotFound reports whether err indicates a missing aggregate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrDistributionNotFound) ||
		errors.Is(err, ErrPayoutNotFound)
}
