package gym

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinCancelHours     = 2
	MaxCancelHours     = 72
	DefaultCancelHours = 24
)

type Gym struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Location    string    `db:"location" json:"location"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Settings holds per-gym booking policy.
type Settings struct {
	GymID            uuid.UUID `db:"gym_id" json:"gym_id"`
	AllowWaitlist    bool      `db:"allow_waitlist" json:"allow_waitlist"`
	CancelLimitHours int       `db:"cancel_limit_hours" json:"cancel_limit_hours"`
	MaxStudents      *int      `db:"max_students" json:"max_students,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

type GymWithSettings struct {
	Gym
	Settings Settings `json:"settings"`
}

type ClassType struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GymID     uuid.UUID `db:"gym_id" json:"gym_id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Color     *string   `db:"color" json:"color,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateGymRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Location    string  `json:"location" binding:"required,min=5,max=200"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone       *string `json:"phone,omitempty"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

type UpdateGymRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Location    *string `json:"location,omitempty" binding:"omitempty,min=5,max=200"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone       *string `json:"phone,omitempty"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

type UpdateSettingsRequest struct {
	AllowWaitlist    *bool `json:"allow_waitlist,omitempty"`
	CancelLimitHours *int  `json:"cancel_limit_hours,omitempty" binding:"omitempty,gte=2,lte=72"`
	MaxStudents      *int  `json:"max_students,omitempty" binding:"omitempty,gte=1"`
}

type CreateClassTypeRequest struct {
	Name  string  `json:"name" binding:"required,min=2,max=50"`
	Color *string `json:"color,omitempty"`
}
