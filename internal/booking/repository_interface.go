package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/db"
)

// Repository runs the engine's queries. Methods take a db.Queryer so the
// service can execute the capacity-critical sequence on a single
// transaction holding the per-class lock.
type Repository interface {
	// LockClass reads the class row FOR UPDATE, serializing all capacity
	// mutation for that class until the transaction ends.
	LockClass(ctx context.Context, q db.Queryer, classID uuid.UUID) (*ClassInfo, error)
	CountByStatus(ctx context.Context, q db.Queryer, classID uuid.UUID) (confirmed, waitlisted int, err error)
	HasActiveBooking(ctx context.Context, q db.Queryer, classID, userID uuid.UUID) (bool, error)
	// HasOverlappingActive reports whether the user holds any non-canceled
	// booking in another class whose time window intersects [start, end).
	// Waitlist entries count: a waitlisted student must not confirm a seat
	// elsewhere at the same time, or a later promotion would hand them two
	// overlapping confirmed bookings.
	HasOverlappingActive(ctx context.Context, q db.Queryer, userID, excludeClassID uuid.UUID, start, end time.Time) (bool, error)
	CountConfirmedInWeek(ctx context.Context, q db.Queryer, userID uuid.UUID, weekStart, weekEnd time.Time) (int, error)
	Insert(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, q db.Queryer, id uuid.UUID) (*Booking, error)
	MarkCanceled(ctx context.Context, q db.Queryer, id uuid.UUID) error
	// NextWaitlisted returns the earliest-created active waitlist entry for
	// the class (ties broken by id), or nil when the waitlist is empty.
	NextWaitlisted(ctx context.Context, q db.Queryer, classID uuid.UUID) (*Booking, error)
	Promote(ctx context.Context, q db.Queryer, id uuid.UUID) error

	ListByUser(ctx context.Context, q db.Queryer, userID uuid.UUID) ([]BookingWithClass, error)
	ListByClass(ctx context.Context, q db.Queryer, gymID, classID uuid.UUID) ([]BookingWithClass, error)
	ListByGym(ctx context.Context, q db.Queryer, gymID uuid.UUID) ([]BookingWithClass, error)
}
