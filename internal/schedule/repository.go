package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrSlotNotFound  = errors.New("template slot not found")
	ErrClassNotFound = errors.New("class not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

const slotColumns = `id, gym_id, day, start_time, duration_minutes, class_type_id, capacity, instructor, is_active, created_at, updated_at`

func (r *repository) CreateSlot(ctx context.Context, gymID uuid.UUID, day Day, spec SlotSpec) (*WeeklyTemplateSlot, error) {
	query := `
		INSERT INTO weekly_template_slots (gym_id, day, start_time, duration_minutes, class_type_id, capacity, instructor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + slotColumns

	var slot WeeklyTemplateSlot
	err := r.db.GetContext(ctx, &slot, query, gymID, day, spec.StartTime, spec.DurationMinutes, spec.ClassTypeID, spec.Capacity, spec.Instructor)
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) UpdateSlot(ctx context.Context, slotID uuid.UUID, spec SlotSpec) (*WeeklyTemplateSlot, error) {
	query := `
		UPDATE weekly_template_slots
		SET start_time = $2,
		    duration_minutes = $3,
		    class_type_id = $4,
		    capacity = $5,
		    instructor = $6,
		    is_active = true,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + slotColumns

	var slot WeeklyTemplateSlot
	err := r.db.GetContext(ctx, &slot, query, slotID, spec.StartTime, spec.DurationMinutes, spec.ClassTypeID, spec.Capacity, spec.Instructor)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) GetSlot(ctx context.Context, slotID uuid.UUID) (*WeeklyTemplateSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM weekly_template_slots WHERE id = $1`

	var slot WeeklyTemplateSlot
	err := r.db.GetContext(ctx, &slot, query, slotID)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) FindSlotAt(ctx context.Context, gymID uuid.UUID, day Day, startTime string) (*WeeklyTemplateSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM weekly_template_slots
		WHERE gym_id = $1 AND day = $2 AND start_time = $3 AND is_active = true
	`

	var slot WeeklyTemplateSlot
	err := r.db.GetContext(ctx, &slot, query, gymID, day, startTime)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) ListSlots(ctx context.Context, gymID uuid.UUID, activeOnly bool) ([]WeeklyTemplateSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM weekly_template_slots WHERE gym_id = $1`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY day, start_time`

	var slots []WeeklyTemplateSlot
	err := r.db.SelectContext(ctx, &slots, query, gymID)
	if err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *repository) DeactivateSlot(ctx context.Context, slotID uuid.UUID) error {
	query := `UPDATE weekly_template_slots SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, slotID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

const classColumns = `id, gym_id, date, start_time, end_time, class_type_id, capacity, instructor, source_slot_id, created_at, updated_at`

func (r *repository) InsertClass(ctx context.Context, class *Class) (*Class, error) {
	query := `
		INSERT INTO classes (gym_id, date, start_time, end_time, class_type_id, capacity, instructor, source_slot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns

	var created Class
	err := r.db.GetContext(ctx, &created, query,
		class.GymID, class.Date, class.StartTime, class.EndTime,
		class.ClassTypeID, class.Capacity, class.Instructor, class.SourceSlotID)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) InsertClassFromSlot(ctx context.Context, slot *WeeklyTemplateSlot, date time.Time) (bool, error) {
	start, err := CombineDateTime(date, slot.StartTime)
	if err != nil {
		return false, err
	}
	end := start.Add(time.Duration(slot.DurationMinutes) * time.Minute)

	query := `
		INSERT INTO classes (gym_id, date, start_time, end_time, class_type_id, capacity, instructor, source_slot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_slot_id, date) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		slot.GymID, date, start, end, slot.ClassTypeID, slot.Capacity, slot.Instructor, slot.ID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *repository) GetClass(ctx context.Context, classID uuid.UUID) (*Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`

	var class Class
	err := r.db.GetContext(ctx, &class, query, classID)
	if err == sql.ErrNoRows {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}

	return &class, nil
}

func (r *repository) ListClasses(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]ClassWithAvailability, error) {
	query := `
		SELECT
			c.id,
			c.gym_id,
			c.date,
			c.start_time,
			c.end_time,
			c.class_type_id,
			c.capacity,
			c.instructor,
			c.source_slot_id,
			c.created_at,
			c.updated_at,
			ct.name AS class_type_name,
			COUNT(b.id) FILTER (WHERE b.status = 'confirmed') AS confirmed_count,
			COUNT(b.id) FILTER (WHERE b.status = 'waitlist') AS waitlist_count
		FROM classes c
		JOIN class_types ct ON c.class_type_id = ct.id
		LEFT JOIN bookings b ON b.class_id = c.id
		WHERE c.gym_id = $1 AND c.date >= $2 AND c.date <= $3
		GROUP BY c.id, ct.name
		ORDER BY c.start_time
	`

	var classes []ClassWithAvailability
	err := r.db.SelectContext(ctx, &classes, query, gymID, from, to)
	if err != nil {
		return nil, err
	}

	for i := range classes {
		classes[i].Available = classes[i].Capacity - classes[i].ConfirmedCount
		if classes[i].Available < 0 {
			classes[i].Available = 0
		}
		classes[i].IsFull = classes[i].ConfirmedCount >= classes[i].Capacity
	}

	return classes, nil
}

func (r *repository) SetClassCapacity(ctx context.Context, classID uuid.UUID, capacity int) error {
	query := `UPDATE classes SET capacity = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, classID, capacity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrClassNotFound
	}

	return nil
}

func (r *repository) ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]UpcomingBooking, error) {
	query := `
		SELECT b.id AS booking_id, b.gym_id, b.class_id, b.user_id, c.start_time
		FROM bookings b
		JOIN classes c ON b.class_id = c.id
		WHERE b.status = 'confirmed'
		  AND b.user_id IS NOT NULL
		  AND c.start_time >= $1
		  AND c.start_time < $2
		ORDER BY c.start_time
	`

	var upcoming []UpcomingBooking
	err := r.db.SelectContext(ctx, &upcoming, query, from, to)
	if err != nil {
		return nil, err
	}

	return upcoming, nil
}
