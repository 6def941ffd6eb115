package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/db"
)

var errAlreadyCanceled = errors.New("booking not found or already canceled")

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) LockClass(ctx context.Context, q db.Queryer, classID uuid.UUID) (*ClassInfo, error) {
	query := `
		SELECT id, gym_id, start_time, end_time, capacity
		FROM classes
		WHERE id = $1
		FOR UPDATE
	`

	var class ClassInfo
	err := q.GetContext(ctx, &class, query, classID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &class, nil
}

func (r *repository) CountByStatus(ctx context.Context, q db.Queryer, classID uuid.UUID) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed,
			COUNT(*) FILTER (WHERE status = 'waitlist') AS waitlisted
		FROM bookings
		WHERE class_id = $1
	`

	var counts statusCounts
	err := q.GetContext(ctx, &counts, query, classID)
	if err != nil {
		return 0, 0, err
	}

	return counts.Confirmed, counts.Waitlisted, nil
}

func (r *repository) HasActiveBooking(ctx context.Context, q db.Queryer, classID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE class_id = $1 AND user_id = $2 AND status <> 'canceled'
		)
	`
	return db.Exists(ctx, q, query, classID, userID)
}

func (r *repository) HasOverlappingActive(ctx context.Context, q db.Queryer, userID, excludeClassID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM bookings b
			JOIN classes c ON b.class_id = c.id
			WHERE b.user_id = $1
			  AND b.status <> 'canceled'
			  AND b.class_id <> $2
			  AND c.start_time < $4
			  AND c.end_time > $3
		)
	`
	return db.Exists(ctx, q, query, userID, excludeClassID, start, end)
}

func (r *repository) CountConfirmedInWeek(ctx context.Context, q db.Queryer, userID uuid.UUID, weekStart, weekEnd time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN classes c ON b.class_id = c.id
		WHERE b.user_id = $1
		  AND b.status = 'confirmed'
		  AND c.start_time >= $2
		  AND c.start_time < $3
	`

	var count int
	err := q.GetContext(ctx, &count, query, userID, weekStart, weekEnd)
	if err != nil {
		return 0, err
	}

	return count, nil
}

const bookingColumns = `id, gym_id, class_id, user_id, participant, origin, guest_name, guest_email, status, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (gym_id, class_id, user_id, participant, origin, guest_name, guest_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookingColumns

	var created Booking
	err := q.GetContext(ctx, &created, query,
		b.GymID, b.ClassID, b.UserID, b.Participant, b.Origin, b.GuestName, b.GuestEmail, b.Status)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, q db.Queryer, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking Booking
	err := q.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) MarkCanceled(ctx context.Context, q db.Queryer, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'canceled', updated_at = now()
		WHERE id = $1 AND status <> 'canceled'
	`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errAlreadyCanceled
	}

	return nil
}

func (r *repository) NextWaitlisted(ctx context.Context, q db.Queryer, classID uuid.UUID) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE class_id = $1 AND status = 'waitlist'
		ORDER BY created_at, id
		LIMIT 1
	`

	var booking Booking
	err := q.GetContext(ctx, &booking, query, classID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) Promote(ctx context.Context, q db.Queryer, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', updated_at = now()
		WHERE id = $1 AND status = 'waitlist'
	`

	result, err := q.ExecContext(ctx, query, id)
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

const bookingWithClassSelect = `
	SELECT
		b.id, b.gym_id, b.class_id, b.user_id, b.participant, b.origin,
		b.guest_name, b.guest_email, b.status, b.created_at, b.updated_at,
		c.start_time AS class_start,
		c.end_time AS class_end,
		ct.name AS class_type_name
	FROM bookings b
	JOIN classes c ON b.class_id = c.id
	JOIN class_types ct ON c.class_type_id = ct.id
`

func (r *repository) ListByUser(ctx context.Context, q db.Queryer, userID uuid.UUID) ([]BookingWithClass, error) {
	query := bookingWithClassSelect + `
		WHERE b.user_id = $1
		ORDER BY c.start_time DESC, b.created_at DESC
	`

	var bookings []BookingWithClass
	err := q.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListByClass(ctx context.Context, q db.Queryer, gymID, classID uuid.UUID) ([]BookingWithClass, error) {
	query := bookingWithClassSelect + `
		WHERE b.gym_id = $1 AND b.class_id = $2
		ORDER BY b.created_at
	`

	var bookings []BookingWithClass
	err := q.SelectContext(ctx, &bookings, query, gymID, classID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListByGym(ctx context.Context, q db.Queryer, gymID uuid.UUID) ([]BookingWithClass, error) {
	query := bookingWithClassSelect + `
		WHERE b.gym_id = $1
		ORDER BY c.start_time DESC, b.created_at DESC
	`

	var bookings []BookingWithClass
	err := q.SelectContext(ctx, &bookings, query, gymID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
