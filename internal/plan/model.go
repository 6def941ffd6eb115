package plan

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a weekly booking quota. A nil WeeklyLimit means unlimited.
type Plan struct {
	ID          uuid.UUID `db:"id" json:"id"`
	GymID       uuid.UUID `db:"gym_id" json:"gym_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	WeeklyLimit *int      `db:"weekly_limit" json:"weekly_limit,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type StudentPlan struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GymID     uuid.UUID `db:"gym_id" json:"gym_id"`
	StudentID uuid.UUID `db:"student_id" json:"student_id"`
	PlanID    uuid.UUID `db:"plan_id" json:"plan_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreatePlanRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
	WeeklyLimit *int    `json:"weekly_limit,omitempty" binding:"omitempty,gte=1"`
}

type AssignPlanRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
	PlanID    uuid.UUID `json:"plan_id" binding:"required"`
	StartDate string    `json:"start_date" binding:"required"`
}
