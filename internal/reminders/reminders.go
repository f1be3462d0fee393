// Package reminders emails students whose fees are pending.
package reminders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/logging"
	"github.com/tuitionhub/server/internal/metrics"
	"github.com/tuitionhub/server/internal/notify"
	"github.com/tuitionhub/server/internal/services"
)

type Job struct {
	DB     *gorm.DB
	Mailer notify.Mailer
	Log    logging.Logger
	Gap    time.Duration // minimum time between two reminders to one student
	Now    func() time.Time
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Start runs the job every interval until ctx is cancelled. A zero interval
// disables it.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.RunOnce(ctx); err != nil {
					j.Log.Error("dues reminders", err)
				}
			}
		}
	}()
}

// RunOnce sends one round of reminders and reports how many went out.
// A student is stamped only after a successful send, so failures are retried
// on the next round.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	now := j.now()
	due, err := services.DueReminders(j.DB, now, now.Add(-j.Gap))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		msg, err := notify.DuesReminder(r)
		if err != nil {
			return sent, err
		}
		if err := j.Mailer.Send(ctx, msg); err != nil {
			metrics.Email(metrics.EmailReminder, false)
			j.Log.Warn("reminder email failed", r.Student.Email, err)
			continue
		}
		metrics.Email(metrics.EmailReminder, true)
		if err := services.MarkReminded(j.DB, r.Student.ID, now); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		j.Log.Info("dues reminders sent", sent)
	}
	return sent, nil
}
