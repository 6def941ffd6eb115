package booking

import "errors"

// Business-rule rejections. These are expected outcomes returned to the
// caller as structured results, never surfaced as generic failures.
var (
	ErrBookingFull      = errors.New("class is fully booked")
	ErrBookingDuplicate = errors.New("active booking already exists for this class")
	ErrBookingOverlap   = errors.New("participant already booked into an overlapping class")
	ErrBookingPlanLimit = errors.New("weekly plan limit reached")
	ErrBookingTooLate   = errors.New("booking is no longer available for this class")
	ErrCancelTooLate    = errors.New("too late to cancel this class")
	ErrGymInactive      = errors.New("gym has been closed")
	ErrNotFound         = errors.New("booking not found")
	ErrUnauthorized     = errors.New("not allowed to perform this action")
	ErrInvalidRequest   = errors.New("invalid booking request")
)
