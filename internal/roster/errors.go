package roster

import "errors"

// Caller-facing rejections. Every one of these leaves the roster state
// untouched; they are invalid operations, not defects.
var (
	ErrAlreadyOpen         = errors.New("an availability window for a later date is already open")
	ErrUnsettledCycle      = errors.New("current cycle still has assignees awaiting proof")
	ErrAlreadyClosed       = errors.New("availability window is already closed")
	ErrWindowClosed        = errors.New("availability window is closed")
	ErrNotEligible         = errors.New("participant is not eligible for duty")
	ErrInsufficientPool    = errors.New("fewer than two participants are available")
	ErrAlreadyAssigned     = errors.New("duty pair already selected for this cycle")
	ErrNoCycle             = errors.New("no current duty cycle")
	ErrNotAssigned         = errors.New("participant is not assigned duty this cycle")
	ErrWrongCycle          = errors.New("submission window for this cycle has passed")
	ErrDuplicateSubmission = errors.New("proof already submitted for this cycle")
	ErrEvidenceRequired    = errors.New("completion must be confirmed with evidence")
)
