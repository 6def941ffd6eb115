package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eduAbreu/train-book/internal/notify"
)

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Emit(ctx context.Context, e notify.Event) {
	m.Called(ctx, e)
}

func TestReminderJob_Run(t *testing.T) {
	userID := uuid.New()
	gymID := uuid.New()
	classID := uuid.New()
	start := time.Now().Add(90 * time.Minute).Truncate(time.Second)

	repo := new(MockScheduleRepo)
	repo.On("ListUpcomingConfirmed", mock.Anything, mock.Anything, mock.Anything).
		Return([]UpcomingBooking{
			{BookingID: uuid.New(), GymID: gymID, ClassID: classID, UserID: &userID, StartTime: start},
		}, nil)

	notifier := new(MockNotifier)
	notifier.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.Type == notify.TypeReminder &&
			e.GymID == gymID &&
			e.ClassID != nil && *e.ClassID == classID &&
			e.UserID != nil && *e.UserID == userID
	})).Return()

	job := NewReminderJob(repo, notifier)
	job.Run(context.Background())

	notifier.AssertNumberOfCalls(t, "Emit", 1)
}

func TestReminderJob_Run_ScanFailure(t *testing.T) {
	repo := new(MockScheduleRepo)
	repo.On("ListUpcomingConfirmed", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	notifier := new(MockNotifier)

	job := NewReminderJob(repo, notifier)
	job.Run(context.Background())

	notifier.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
	assert.True(t, repo.AssertExpectations(t))
}
