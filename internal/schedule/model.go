package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Day matches the day-of-week convention used by weekly template slots.
type Day string

const (
	Mon Day = "Mon"
	Tue Day = "Tue"
	Wed Day = "Wed"
	Thu Day = "Thu"
	Fri Day = "Fri"
	Sat Day = "Sat"
	Sun Day = "Sun"
)

var AllDays = []Day{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

func (d Day) Valid() bool {
	for _, day := range AllDays {
		if d == day {
			return true
		}
	}
	return false
}

// DayOf maps a calendar date to its slot day.
func DayOf(t time.Time) Day {
	switch t.Weekday() {
	case time.Monday:
		return Mon
	case time.Tuesday:
		return Tue
	case time.Wednesday:
		return Wed
	case time.Thursday:
		return Thu
	case time.Friday:
		return Fri
	case time.Saturday:
		return Sat
	default:
		return Sun
	}
}

const (
	MinCapacity     = 1
	MaxCapacity     = 100
	DurationStepMin = 15
)

type WeeklyTemplateSlot struct {
	ID              uuid.UUID `db:"id" json:"id"`
	GymID           uuid.UUID `db:"gym_id" json:"gym_id"`
	Day             Day       `db:"day" json:"day"`
	StartTime       string    `db:"start_time" json:"start_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	ClassTypeID     uuid.UUID `db:"class_type_id" json:"class_type_id"`
	Capacity        int       `db:"capacity" json:"capacity"`
	Instructor      *string   `db:"instructor" json:"instructor,omitempty"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type Class struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	GymID        uuid.UUID  `db:"gym_id" json:"gym_id"`
	Date         time.Time  `db:"date" json:"date"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      time.Time  `db:"end_time" json:"end_time"`
	ClassTypeID  uuid.UUID  `db:"class_type_id" json:"class_type_id"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Instructor   *string    `db:"instructor" json:"instructor,omitempty"`
	SourceSlotID *uuid.UUID `db:"source_slot_id" json:"source_slot_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type ClassWithAvailability struct {
	Class
	ClassTypeName  string `db:"class_type_name" json:"class_type_name"`
	ConfirmedCount int    `db:"confirmed_count" json:"confirmed_count"`
	WaitlistCount  int    `db:"waitlist_count" json:"waitlist_count"`
	Available      int    `json:"available"`
	IsFull         bool   `json:"is_full"`
}

// SlotSpec is the slot shape shared by create, update, and apply-to-days.
type SlotSpec struct {
	StartTime       string    `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required"`
	ClassTypeID     uuid.UUID `json:"class_type_id" binding:"required"`
	Capacity        int       `json:"capacity" binding:"required"`
	Instructor      *string   `json:"instructor,omitempty"`
}

type CreateSlotRequest struct {
	Day Day `json:"day" binding:"required"`
	SlotSpec
}

type ApplyMode string

const (
	ApplySkip    ApplyMode = "skip"
	ApplyReplace ApplyMode = "replace"
)

type ApplyToDaysRequest struct {
	Slot SlotSpec  `json:"slot" binding:"required"`
	Days []Day     `json:"days" binding:"required,min=1"`
	Mode ApplyMode `json:"mode" binding:"required,oneof=skip replace"`
}

type ApplySummary struct {
	Applied []Day `json:"applied"`
	Skipped []Day `json:"skipped"`
}

type CreateClassRequest struct {
	Date            string    `json:"date" binding:"required"`
	StartTime       string    `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required"`
	ClassTypeID     uuid.UUID `json:"class_type_id" binding:"required"`
	Capacity        int       `json:"capacity" binding:"required,min=1"`
	Instructor      *string   `json:"instructor,omitempty"`
}

type GenerateRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type GenerateSummary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
