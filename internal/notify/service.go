package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduAbreu/train-book/internal/logger"
	"github.com/eduAbreu/train-book/internal/metrics"
)

const queueKey = "notifications"

// Notifier is the engine-facing side of the dispatcher. Emit is
// fire-and-forget: failures are logged, never returned to the booking path.
type Notifier interface {
	Emit(ctx context.Context, e Event)
}

type Service struct {
	redis *redis.Client
	repo  Repository
}

func New(redisClient *redis.Client, repo Repository) *Service {
	return &Service{redis: redisClient, repo: repo}
}

func (s *Service) Emit(ctx context.Context, e Event) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		logger.Errorf("Failed to marshal notification payload: %v", err)
		return
	}
	if e.Payload == nil {
		payload = []byte("{}")
	}

	if _, err := s.repo.Insert(ctx, e, payload); err != nil {
		logger.Error("Failed to persist notification", "type", e.Type, "error", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		logger.Errorf("Failed to marshal notification event: %v", err)
		return
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("Failed to queue notification", "type", e.Type, "error", err)
		return
	}

	metrics.RecordNotificationQueued(string(e.Type))
	logger.Debug("Notification queued", "type", e.Type, "gym_id", e.GymID)
}

// Start drains the queue until ctx is canceled. Delivery transports hang off
// this loop; the engine only guarantees the event reaches the queue.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var e Event
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	if length, err := s.redis.LLen(ctx, queueKey).Result(); err == nil {
		metrics.NotificationQueueLength.Set(float64(length))
	}

	logger.Info("Notification dispatched", "type", e.Type, "gym_id", e.GymID)
}
