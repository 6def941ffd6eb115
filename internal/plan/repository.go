package plan

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduAbreu/train-book/internal/db"
)

var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrAssignmentNotFound = errors.New("plan assignment not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

const planColumns = `id, gym_id, name, description, weekly_limit, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, gymID uuid.UUID, req CreatePlanRequest) (*Plan, error) {
	query := `
		INSERT INTO plans (gym_id, name, description, weekly_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + planColumns

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, gymID, req.Name, req.Description, req.WeeklyLimit)
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *repository) List(ctx context.Context, gymID uuid.UUID) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE gym_id = $1 AND is_active = true ORDER BY name`

	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, query, gymID)
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE plans SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func (r *repository) Assign(ctx context.Context, gymID, studentID, planID uuid.UUID, startDate time.Time) (*StudentPlan, error) {
	var assignment StudentPlan
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		deactivate := `
			UPDATE student_plans
			SET is_active = false, updated_at = now()
			WHERE student_id = $1 AND is_active = true
		`
		if _, err := tx.ExecContext(ctx, deactivate, studentID); err != nil {
			return err
		}

		insert := `
			INSERT INTO student_plans (gym_id, student_id, plan_id, start_date)
			VALUES ($1, $2, $3, $4)
			RETURNING id, gym_id, student_id, plan_id, start_date, is_active, created_at, updated_at
		`
		return tx.GetContext(ctx, &assignment, insert, gymID, studentID, planID, startDate)
	})
	if err != nil {
		return nil, err
	}

	return &assignment, nil
}

func (r *repository) ActiveWeeklyLimit(ctx context.Context, studentID uuid.UUID) (*int, bool, error) {
	query := `
		SELECT p.weekly_limit
		FROM student_plans sp
		JOIN plans p ON sp.plan_id = p.id
		WHERE sp.student_id = $1 AND sp.is_active = true AND p.is_active = true
	`

	var limit *int
	err := r.db.GetContext(ctx, &limit, query, studentID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return limit, true, nil
}

func (r *repository) GetActiveAssignment(ctx context.Context, studentID uuid.UUID) (*StudentPlan, error) {
	query := `
		SELECT id, gym_id, student_id, plan_id, start_date, is_active, created_at, updated_at
		FROM student_plans
		WHERE student_id = $1 AND is_active = true
	`

	var assignment StudentPlan
	err := r.db.GetContext(ctx, &assignment, query, studentID)
	if err == sql.ErrNoRows {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &assignment, nil
}
