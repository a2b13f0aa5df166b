package service

import (
	"context"
	"time"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
)

// SweeperRepository переходы, выполняемые фоновым обходом.
type SweeperRepository interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	SweepReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error)
}

// Sweeper периодически фиксирует истёкшие предложения и рассылает
// напоминания о скором истечении срока.
type Sweeper struct {
	repo     SweeperRepository
	notifier OutboxNotifier
	interval time.Duration
	lead     time.Duration
}

func NewSweeper(repo SweeperRepository, notifier OutboxNotifier, interval, lead time.Duration) *Sweeper {
	return &Sweeper{repo: repo, notifier: notifier, interval: interval, lead: lead}
}

// Run крутит обход до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := s.repo.SweepExpired(ctx, now)
	if err != nil {
		logger.Log.WithError(err).Error("sweeper: expired pass failed")
	} else if expired > 0 {
		logger.Log.WithField("count", expired).Info("sweeper: expired quotes logged")
	}

	reminders, err := s.repo.SweepReminders(ctx, now, s.lead)
	if err != nil {
		logger.Log.WithError(err).Error("sweeper: reminder pass failed")
		return
	}
	if reminders > 0 {
		logger.Log.WithField("count", reminders).Info("sweeper: reminders queued")
		if s.notifier != nil {
			s.notifier.Wake()
		}
	}
}
