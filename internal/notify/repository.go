package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Repository interface {
	Insert(ctx context.Context, e Event, payload []byte) (*Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Insert(ctx context.Context, e Event, payload []byte) (*Notification, error) {
	query := `
		INSERT INTO notifications (gym_id, type, class_id, user_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, gym_id, type, class_id, user_id, payload, is_read, created_at
	`

	var n Notification
	err := r.db.GetContext(ctx, &n, query, e.GymID, e.Type, e.ClassID, e.UserID, payload)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT id, gym_id, type, class_id, user_id, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	var notifications []Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
