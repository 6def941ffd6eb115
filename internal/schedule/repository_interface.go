package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSlot(ctx context.Context, gymID uuid.UUID, day Day, spec SlotSpec) (*WeeklyTemplateSlot, error)
	UpdateSlot(ctx context.Context, slotID uuid.UUID, spec SlotSpec) (*WeeklyTemplateSlot, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (*WeeklyTemplateSlot, error)
	FindSlotAt(ctx context.Context, gymID uuid.UUID, day Day, startTime string) (*WeeklyTemplateSlot, error)
	ListSlots(ctx context.Context, gymID uuid.UUID, activeOnly bool) ([]WeeklyTemplateSlot, error)
	DeactivateSlot(ctx context.Context, slotID uuid.UUID) error

	InsertClass(ctx context.Context, class *Class) (*Class, error)
	// InsertClassFromSlot creates the dated class for a slot unless one
	// already exists for that slot and date. Reports whether a row was
	// created.
	InsertClassFromSlot(ctx context.Context, slot *WeeklyTemplateSlot, date time.Time) (bool, error)
	GetClass(ctx context.Context, classID uuid.UUID) (*Class, error)
	ListClasses(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]ClassWithAvailability, error)
	SetClassCapacity(ctx context.Context, classID uuid.UUID, capacity int) error

	ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]UpcomingBooking, error)
}

// UpcomingBooking is a confirmed seat in a class that starts soon, used by
// the reminder job.
type UpcomingBooking struct {
	BookingID uuid.UUID  `db:"booking_id"`
	GymID     uuid.UUID  `db:"gym_id"`
	ClassID   uuid.UUID  `db:"class_id"`
	UserID    *uuid.UUID `db:"user_id"`
	StartTime time.Time  `db:"start_time"`
}
