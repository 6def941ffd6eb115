package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduAbreu/train-book/internal/auth"
	"github.com/eduAbreu/train-book/internal/booking"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { database.Close() })

	return NewRepository(database, booking.NewRepository()), mock
}

func userRow(u User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "gym_id", "onboarding_completed", "created_at",
	}).AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.GymID, u.OnboardingCompleted, u.CreatedAt)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := setupMock(t)

	created := User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com",
		PasswordHash: "hashed", Role: auth.RoleStudent, CreatedAt: time.Now()}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Ana", "ana@example.com", "hashed", auth.RoleStudent).
		WillReturnRows(userRow(created))

	u, err := repo.Create(context.Background(), "Ana", "ana@example.com", "hashed", auth.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.False(t, u.OnboardingCompleted)
}

func TestRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_SetGym(t *testing.T) {
	repo, mock := setupMock(t)

	userID := uuid.New()
	gymID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`SET gym_id = $2, onboarding_completed = true`)).
		WithArgs(userID, gymID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetGym(context.Background(), userID, gymID))

	// Owners never match the student filter.
	mock.ExpectExec(regexp.QuoteMeta(`SET gym_id = $2, onboarding_completed = true`)).
		WithArgs(userID, gymID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetGym(context.Background(), userID, gymID), ErrUserNotFound)
}

func TestRepository_Unlink(t *testing.T) {
	repo, mock := setupMock(t)

	userID := uuid.New()
	gymID := uuid.New()
	classID := uuid.New()
	waitlistedID := uuid.New()
	waitlistedUser := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET gym_id = NULL`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE student_plans SET is_active = false`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The student holds one upcoming confirmed seat.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT b.class_id, b.status`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "status"}).
			AddRow(classID, "confirmed"))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "gym_id", "start_time", "end_time", "capacity"}).
			AddRow(classID, gymID, start, start.Add(time.Hour), 10))

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'canceled'`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The freed seat goes to the earliest waitlisted entry, inside the
	// same transaction as the cancellation.
	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE status = 'confirmed')`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"confirmed", "waitlisted"}).AddRow(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`status = 'waitlist'`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "gym_id", "class_id", "user_id", "participant", "origin",
			"guest_name", "guest_email", "status", "created_at", "updated_at",
		}).AddRow(waitlistedID, gymID, classID, waitlistedUser, "student", "student",
			nil, nil, "waitlist", time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'confirmed'`)).
		WithArgs(waitlistedID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE status = 'confirmed')`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"confirmed", "waitlisted"}).AddRow(10, 0))

	mock.ExpectCommit()

	require.NoError(t, repo.Unlink(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Unlink_WaitlistEntryFreesNoSeat(t *testing.T) {
	repo, mock := setupMock(t)

	userID := uuid.New()
	gymID := uuid.New()
	classID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET gym_id = NULL`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE student_plans SET is_active = false`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Only a waitlist entry: it is canceled but nobody gets promoted.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT b.class_id, b.status`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "status"}).
			AddRow(classID, "waitlist"))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "gym_id", "start_time", "end_time", "capacity"}).
			AddRow(classID, gymID, start, start.Add(time.Hour), 10))

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'canceled'`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Unlink(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Unlink_UnknownStudentRollsBack(t *testing.T) {
	repo, mock := setupMock(t)

	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET gym_id = NULL`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Unlink(context.Background(), userID), ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountMembers(t *testing.T) {
	repo, mock := setupMock(t)

	gymID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE gym_id = $1`)).
		WithArgs(gymID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(37))

	count, err := repo.CountMembers(context.Background(), gymID)
	require.NoError(t, err)
	assert.Equal(t, 37, count)
}
