package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusWaitlist  Status = "waitlist"
	// StatusCanceled is terminal; canceled rows are retained and a
	// re-booking always creates a fresh row.
	StatusCanceled Status = "canceled"
)

type ParticipantType string

const (
	ParticipantStudent ParticipantType = "student"
	ParticipantGuest   ParticipantType = "guest"
)

type Origin string

const (
	OriginStudent Origin = "student"
	OriginOwner   Origin = "owner"
)

type Booking struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	GymID       uuid.UUID       `db:"gym_id" json:"gym_id"`
	ClassID     uuid.UUID       `db:"class_id" json:"class_id"`
	UserID      *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	Participant ParticipantType `db:"participant" json:"participant"`
	Origin      Origin          `db:"origin" json:"origin"`
	GuestName   *string         `db:"guest_name" json:"guest_name,omitempty"`
	GuestEmail  *string         `db:"guest_email" json:"guest_email,omitempty"`
	Status      Status          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type BookingWithClass struct {
	Booking
	ClassStart    time.Time `db:"class_start" json:"class_start"`
	ClassEnd      time.Time `db:"class_end" json:"class_end"`
	ClassTypeName string    `db:"class_type_name" json:"class_type_name"`
}

// ClassInfo is the slice of the class row the engine needs while holding the
// per-class lock.
type ClassInfo struct {
	ID        uuid.UUID `db:"id"`
	GymID     uuid.UUID `db:"gym_id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	Capacity  int       `db:"capacity"`
}

type ParticipantRef struct {
	Type       ParticipantType `json:"type"`
	UserID     *uuid.UUID      `json:"user_id,omitempty"`
	GuestName  *string         `json:"guest_name,omitempty"`
	GuestEmail *string         `json:"guest_email,omitempty"`
}

type Options struct {
	IgnorePlanLimit bool `json:"ignore_plan_limit"`
	ForceConfirmed  bool `json:"force_confirmed"`
}

type BookRequest struct {
	GymID       uuid.UUID      `json:"gym_id"`
	ClassID     uuid.UUID      `json:"class_id"`
	Participant ParticipantRef `json:"participant"`
	Origin      Origin         `json:"origin"`
	Options     Options        `json:"options"`
}

type BookResult struct {
	Booking          *Booking `json:"booking"`
	Status           Status   `json:"status"`
	WaitlistPosition int      `json:"waitlist_position,omitempty"`
}

// Actor is the authenticated principal attempting an operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

type statusCounts struct {
	Confirmed  int `db:"confirmed"`
	Waitlisted int `db:"waitlisted"`
}
