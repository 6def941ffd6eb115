package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduAbreu/train-book/internal/booking"
	"github.com/eduAbreu/train-book/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, password_hash, role, gym_id, onboarding_completed, created_at`

type repository struct {
	db *sqlx.DB
	// bookings is stateless and runs on whatever transaction Unlink holds,
	// so freed seats are refilled with the engine's own promotion queries.
	bookings booking.Repository
}

func NewRepository(database *sqlx.DB, bookings booking.Repository) Repository {
	return &repository{db: database, bookings: bookings}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var u User
	if err := r.db.GetContext(ctx, &u, query, name, email, passwordHash, role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	return exists, err
}

func (r *repository) SetGym(ctx context.Context, userID, gymID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET gym_id = $2, onboarding_completed = true
		WHERE id = $1 AND role = 'student'`,
		userID, gymID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *repository) SetOnboardingCompleted(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET onboarding_completed = true WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *repository) CountMembers(ctx context.Context, gymID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE gym_id = $1 AND role = 'student'`, gymID)
	return count, err
}

func (r *repository) ListMembers(ctx context.Context, gymID uuid.UUID) ([]User, error) {
	members := []User{}
	err := r.db.SelectContext(ctx, &members,
		`SELECT `+userColumns+` FROM users
		 WHERE gym_id = $1 AND role = 'student'
		 ORDER BY name`, gymID)
	return members, err
}

func (r *repository) Unlink(ctx context.Context, userID uuid.UUID) error {
	return db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET gym_id = NULL WHERE id = $1 AND role = 'student'`, userID)
		if err != nil {
			return err
		}
		if err := requireRow(result); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE student_plans SET is_active = false WHERE student_id = $1 AND is_active`, userID); err != nil {
			return err
		}

		var upcoming []struct {
			ClassID uuid.UUID      `db:"class_id"`
			Status  booking.Status `db:"status"`
		}
		if err := tx.SelectContext(ctx, &upcoming, `
			SELECT b.class_id, b.status
			FROM bookings b
			JOIN classes c ON b.class_id = c.id
			WHERE b.user_id = $1
			  AND b.status <> 'canceled'
			  AND c.start_time > now()
			ORDER BY c.start_time`,
			userID); err != nil {
			return err
		}

		// Lock every affected class before touching its bookings, the same
		// order of operations as a single cancellation.
		classes := make(map[uuid.UUID]*booking.ClassInfo)
		freed := []uuid.UUID{}
		for _, b := range upcoming {
			if _, ok := classes[b.ClassID]; !ok {
				class, err := r.bookings.LockClass(ctx, tx, b.ClassID)
				if err != nil {
					return err
				}
				classes[b.ClassID] = class
				if b.Status == booking.StatusConfirmed {
					freed = append(freed, b.ClassID)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bookings b
			SET status = 'canceled', updated_at = now()
			FROM classes c
			WHERE b.class_id = c.id
			  AND b.user_id = $1
			  AND b.status <> 'canceled'
			  AND c.start_time > now()`,
			userID); err != nil {
			return err
		}

		// A seat freed by the departing student goes to the earliest
		// waitlisted entry of that class, never left unowned past commit.
		for _, classID := range freed {
			if err := r.fillFreedSeats(ctx, tx, classes[classID]); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *repository) fillFreedSeats(ctx context.Context, tx *sqlx.Tx, class *booking.ClassInfo) error {
	for {
		confirmed, _, err := r.bookings.CountByStatus(ctx, tx, class.ID)
		if err != nil {
			return err
		}
		if confirmed >= class.Capacity {
			return nil
		}

		next, err := r.bookings.NextWaitlisted(ctx, tx, class.ID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		if err := r.bookings.Promote(ctx, tx, next.ID); err != nil {
			return err
		}
	}
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
