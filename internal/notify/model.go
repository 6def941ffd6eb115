package notify

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBooked    Type = "booked"
	TypeCanceled  Type = "canceled"
	TypePromoted  Type = "promoted"
	TypeWaitlist  Type = "waitlist"
	TypeReminder  Type = "reminder"
	TypePlanLimit Type = "plan_limit"
)

// Event is what the engine emits; delivery (push/email) is downstream of the
// queue and out of scope here.
type Event struct {
	Type    Type                   `json:"type"`
	GymID   uuid.UUID              `json:"gym_id"`
	ClassID *uuid.UUID             `json:"class_id,omitempty"`
	UserID  *uuid.UUID             `json:"user_id,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	GymID     uuid.UUID  `db:"gym_id" json:"gym_id"`
	Type      Type       `db:"type" json:"type"`
	ClassID   *uuid.UUID `db:"class_id" json:"class_id,omitempty"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Payload   []byte     `db:"payload" json:"payload"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
