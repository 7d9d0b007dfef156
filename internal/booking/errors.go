package booking

import "errors"

var (
	// ErrInvalidInput covers malformed dates, times and durations as well
	// as references to unknown entities; rejected before touching storage
	// where possible.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSlotUnavailable means the slot was valid at read time but failed
	// re-validation at commit time (lost race, blocked range, overlap).
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrClientLimitExceeded means the client already holds the maximum
	// number of scheduled appointments.
	ErrClientLimitExceeded = errors.New("client appointment limit exceeded")

	// ErrEntityInactive means the selected service or professional is
	// disabled at confirmation time.
	ErrEntityInactive = errors.New("service or professional inactive")

	ErrNotFound = errors.New("not found")
)
