package plan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, gymID uuid.UUID, req CreatePlanRequest) (*Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	List(ctx context.Context, gymID uuid.UUID) ([]Plan, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// Assign deactivates any existing active assignment for the student and
	// inserts the new one, atomically.
	Assign(ctx context.Context, gymID, studentID, planID uuid.UUID, startDate time.Time) (*StudentPlan, error)
	// ActiveWeeklyLimit resolves the student's current quota. The bool
	// reports whether an active plan assignment exists; a nil limit on an
	// existing plan means unlimited.
	ActiveWeeklyLimit(ctx context.Context, studentID uuid.UUID) (*int, bool, error)
	GetActiveAssignment(ctx context.Context, studentID uuid.UUID) (*StudentPlan, error)
}
