package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationRepo struct{ mock.Mock }

func (m *MockNotificationRepo) Insert(ctx context.Context, e Event, payload []byte) (*Notification, error) {
	args := m.Called(ctx, e, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func TestService_Emit(t *testing.T) {
	userID := uuid.New()
	event := Event{
		Type:    TypePromoted,
		GymID:   uuid.New(),
		UserID:  &userID,
		Payload: map[string]interface{}{"position": 1},
	}

	t.Run("persists and queues the event", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()

		repo := new(MockNotificationRepo)
		repo.On("Insert", mock.Anything, event, []byte(`{"position":1}`)).
			Return(&Notification{ID: uuid.New()}, nil)

		data, err := json.Marshal(event)
		require.NoError(t, err)
		redisMock.ExpectLPush("notifications", data).SetVal(1)

		service := New(redisClient, repo)
		service.Emit(context.Background(), event)

		repo.AssertExpectations(t)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("still queues when persistence fails", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()

		repo := new(MockNotificationRepo)
		repo.On("Insert", mock.Anything, event, mock.Anything).
			Return(nil, errors.New("db down"))

		data, err := json.Marshal(event)
		require.NoError(t, err)
		redisMock.ExpectLPush("notifications", data).SetVal(1)

		service := New(redisClient, repo)
		service.Emit(context.Background(), event)

		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("empty payload is stored as an empty object", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()

		bare := Event{Type: TypeCanceled, GymID: uuid.New()}

		repo := new(MockNotificationRepo)
		repo.On("Insert", mock.Anything, bare, []byte(`{}`)).
			Return(&Notification{ID: uuid.New()}, nil)

		data, err := json.Marshal(bare)
		require.NoError(t, err)
		redisMock.ExpectLPush("notifications", data).SetVal(1)

		service := New(redisClient, repo)
		service.Emit(context.Background(), bare)

		repo.AssertExpectations(t)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
