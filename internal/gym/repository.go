package gym

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduAbreu/train-book/internal/db"
)

var ErrNotFound = errors.New("gym not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Create(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error) {
	var gym Gym
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO gyms (owner_id, name, location, email, phone, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, owner_id, name, location, email, phone, description, is_active, created_at, updated_at
		`
		if err := tx.GetContext(ctx, &gym, query, ownerID, req.Name, req.Location, req.Email, req.Phone, req.Description); err != nil {
			return err
		}

		settingsQuery := `
			INSERT INTO gym_settings (gym_id, allow_waitlist, cancel_limit_hours)
			VALUES ($1, true, $2)
		`
		if _, err := tx.ExecContext(ctx, settingsQuery, gym.ID, DefaultCancelHours); err != nil {
			return err
		}

		// Creating a gym completes the owner's onboarding.
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET onboarding_completed = true WHERE id = $1`, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Gym, error) {
	query := `
		SELECT id, owner_id, name, location, email, phone, description, is_active, created_at, updated_at
		FROM gyms
		WHERE id = $1
	`

	var gym Gym
	err := r.db.GetContext(ctx, &gym, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Gym, error) {
	query := `
		SELECT id, owner_id, name, location, email, phone, description, is_active, created_at, updated_at
		FROM gyms
		WHERE owner_id = $1
	`

	var gym Gym
	err := r.db.GetContext(ctx, &gym, query, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Gym, error) {
	query := `
		SELECT id, owner_id, name, location, email, phone, description, is_active, created_at, updated_at
		FROM gyms
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	var gyms []Gym
	err := r.db.SelectContext(ctx, &gyms, query)
	if err != nil {
		return nil, err
	}

	return gyms, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, req UpdateGymRequest) (*Gym, error) {
	query := `
		UPDATE gyms
		SET name = COALESCE($2, name),
		    location = COALESCE($3, location),
		    email = COALESCE($4, email),
		    phone = COALESCE($5, phone),
		    description = COALESCE($6, description),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, name, location, email, phone, description, is_active, created_at, updated_at
	`

	var gym Gym
	err := r.db.GetContext(ctx, &gym, query, id, req.Name, req.Location, req.Email, req.Phone, req.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) Close(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE gyms SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) GetSettings(ctx context.Context, gymID uuid.UUID) (*Settings, error) {
	query := `
		SELECT gym_id, allow_waitlist, cancel_limit_hours, max_students, created_at, updated_at
		FROM gym_settings
		WHERE gym_id = $1
	`

	var settings Settings
	err := r.db.GetContext(ctx, &settings, query, gymID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func (r *repository) UpdateSettings(ctx context.Context, gymID uuid.UUID, req UpdateSettingsRequest) (*Settings, error) {
	query := `
		UPDATE gym_settings
		SET allow_waitlist = COALESCE($2, allow_waitlist),
		    cancel_limit_hours = COALESCE($3, cancel_limit_hours),
		    max_students = COALESCE($4, max_students),
		    updated_at = now()
		WHERE gym_id = $1
		RETURNING gym_id, allow_waitlist, cancel_limit_hours, max_students, created_at, updated_at
	`

	var settings Settings
	err := r.db.GetContext(ctx, &settings, query, gymID, req.AllowWaitlist, req.CancelLimitHours, req.MaxStudents)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func (r *repository) CreateClassType(ctx context.Context, gymID uuid.UUID, name, slug string, color *string) (*ClassType, error) {
	query := `
		INSERT INTO class_types (gym_id, name, slug, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, gym_id, name, slug, color, is_active, created_at, updated_at
	`

	var ct ClassType
	err := r.db.GetContext(ctx, &ct, query, gymID, name, slug, color)
	if err != nil {
		return nil, err
	}

	return &ct, nil
}

func (r *repository) ListClassTypes(ctx context.Context, gymID uuid.UUID) ([]ClassType, error) {
	query := `
		SELECT id, gym_id, name, slug, color, is_active, created_at, updated_at
		FROM class_types
		WHERE gym_id = $1 AND is_active = true
		ORDER BY name
	`

	var types []ClassType
	err := r.db.SelectContext(ctx, &types, query, gymID)
	if err != nil {
		return nil, err
	}

	return types, nil
}
