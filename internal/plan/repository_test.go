package plan

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
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { database.Close() })

	return NewRepository(database), mock
}

func TestRepository_Assign_ReplacesActivePlan(t *testing.T) {
	repo, mock := setupMock(t)

	gymID := uuid.New()
	studentID := uuid.New()
	planID := uuid.New()
	startDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE student_plans`)).
		WithArgs(studentID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO student_plans`)).
		WithArgs(gymID, studentID, planID, startDate).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "gym_id", "student_id", "plan_id", "start_date", "is_active", "created_at", "updated_at",
		}).AddRow(uuid.New(), gymID, studentID, planID, startDate, true, time.Now(), time.Now()))
	mock.ExpectCommit()

	assignment, err := repo.Assign(context.Background(), gymID, studentID, planID, startDate)
	require.NoError(t, err)
	assert.Equal(t, planID, assignment.PlanID)
	assert.True(t, assignment.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ActiveWeeklyLimit(t *testing.T) {
	repo, mock := setupMock(t)

	studentID := uuid.New()

	t.Run("limited plan", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.weekly_limit`)).
			WithArgs(studentID).
			WillReturnRows(sqlmock.NewRows([]string{"weekly_limit"}).AddRow(3))

		limit, ok, err := repo.ActiveWeeklyLimit(context.Background(), studentID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, limit)
		assert.Equal(t, 3, *limit)
	})

	t.Run("unlimited plan stores NULL", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.weekly_limit`)).
			WithArgs(studentID).
			WillReturnRows(sqlmock.NewRows([]string{"weekly_limit"}).AddRow(nil))

		limit, ok, err := repo.ActiveWeeklyLimit(context.Background(), studentID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, limit)
	})

	t.Run("no active plan", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.weekly_limit`)).
			WithArgs(studentID).
			WillReturnRows(sqlmock.NewRows([]string{"weekly_limit"}))

		limit, ok, err := repo.ActiveWeeklyLimit(context.Background(), studentID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, limit)
	})
}

func TestRepository_Deactivate_NotFound(t *testing.T) {
	repo, mock := setupMock(t)

	planID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE plans SET is_active = false`)).
		WithArgs(planID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), planID), ErrPlanNotFound)
}
