package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Ledger errors
	ErrDayLocked     = errors.New("day is not editable (only today can be modified)")
	ErrEntryNotFound = errors.New("entry not found in day ledger")
	ErrBadPayload    = errors.New("malformed drop payload")

	// Catalog errors
	ErrItemNotFound = errors.New("catalog item not found")
	ErrGoalNotFound = errors.New("weekly goal not found")

	// Bank errors
	ErrInvalidAmount     = errors.New("bank amount must be a positive number")
	ErrInsufficientFunds = errors.New("withdrawal exceeds demand balance")
	ErrDepositNotFound   = errors.New("fixed deposit not found")

	// Import errors
	ErrInvalidImport = errors.New("invalid import document")

	// Bounty errors
	ErrBountyNotFound = errors.New("weekly bounty not found")
	ErrWeekLocked     = errors.New("bounties can only be edited in the current week")
)
