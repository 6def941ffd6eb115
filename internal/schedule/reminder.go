package schedule

import (
	"context"
	"time"

	"github.com/eduAbreu/train-book/internal/logger"
	"github.com/eduAbreu/train-book/internal/notify"
)

// ReminderJob notifies confirmed participants of classes starting soon.
// It is scheduled hourly and scans the [now+1h, now+2h) window, so each
// class is picked up by exactly one run.
type ReminderJob struct {
	repo     Repository
	notifier notify.Notifier
}

func NewReminderJob(repo Repository, notifier notify.Notifier) *ReminderJob {
	return &ReminderJob{repo: repo, notifier: notifier}
}

func (j *ReminderJob) Run(ctx context.Context) {
	now := time.Now()
	from := now.Add(time.Hour)
	to := now.Add(2 * time.Hour)

	upcoming, err := j.repo.ListUpcomingConfirmed(ctx, from, to)
	if err != nil {
		logger.Errorf("Reminder scan failed: %v", err)
		return
	}

	for _, b := range upcoming {
		b := b
		j.notifier.Emit(ctx, notify.Event{
			Type:    notify.TypeReminder,
			GymID:   b.GymID,
			ClassID: &b.ClassID,
			UserID:  b.UserID,
			Payload: map[string]interface{}{
				"start_time": b.StartTime.Format(time.RFC3339),
			},
		})
	}

	if len(upcoming) > 0 {
		logger.Info("Class reminders queued", "count", len(upcoming))
	}
}
