package slots

import "errors"

var (
	// ErrSlotNotFound is returned when a slot does not exist.
	ErrSlotNotFound = errors.New("slots: slot not found")
	// ErrCenterNotFound is returned when a center does not exist.
	ErrCenterNotFound = errors.New("slots: center not found")
	// ErrSlotFull is returned when no seat is left to reserve.
	ErrSlotFull = errors.New("slots: slot is full")
	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("slots: date must be YYYY-MM-DD")
)
