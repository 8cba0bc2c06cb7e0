package vault

import "errors"

// Failure taxonomy for vault operations. A failed call leaves every piece of
// vault state exactly as it was before the call; callers branch on cause with
// errors.Is, never by matching message text.
var (
	// ErrCapacityExceeded means a deposit would push the pooled total above BankCap.
	ErrCapacityExceeded = errors.New("deposit would exceed bank capacity")

	// ErrThresholdExceeded means a withdrawal asked for more than the per-call ceiling.
	ErrThresholdExceeded = errors.New("withdrawal exceeds per-call threshold")

	// ErrInsufficientBalance means a withdrawal asked for more than the caller holds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferFailed means the outbound value transfer did not succeed and the
	// withdrawal was rolled back.
	ErrTransferFailed = errors.New("outbound transfer failed")

	// ErrInvalidConfiguration means construction was attempted with a zero capacity.
	ErrInvalidConfiguration = errors.New("invalid vault configuration")
)
