package scheduling

import "errors"

var (
	// ErrInvalidWindow reports a malformed availability window or slot sizing.
	ErrInvalidWindow = errors.New("invalid availability window")
	// ErrInvalidBookingRequest reports missing templates or a non-positive lesson count.
	ErrInvalidBookingRequest = errors.New("invalid booking request")
	// ErrDataInconsistency reports templates whose start and end no longer agree after rolling.
	ErrDataInconsistency = errors.New("schedule data inconsistency")
)
