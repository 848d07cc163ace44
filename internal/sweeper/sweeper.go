package sweeper

import (
	"context"
	"time"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/internal/repository"
	"github.com/jkarimi/iou-engine/pkg/logger"
)

// Options are the sweep windows.
type Options struct {
	LogRetention   time.Duration
	PendingTimeout time.Duration
	ReminderDedup  time.Duration
}

// Sweeper runs the periodic maintenance passes: flushing due scheduled
// notifications, sending daily overdue reminders, pruning old logs and
// failing stuck deliveries. Each pass is idempotent, so overlapping runs
// after a missed tick are harmless.
type Sweeper struct {
	debts         repository.DebtRepository
	notifications repository.NotificationRepository
	tasks         *notify.Tasks
	opts          Options
	now           func() time.Time
}

func New(
	debts repository.DebtRepository,
	notifications repository.NotificationRepository,
	tasks *notify.Tasks,
	opts Options,
) *Sweeper {
	if opts.LogRetention <= 0 {
		opts.LogRetention = 90 * 24 * time.Hour
	}
	if opts.PendingTimeout <= 0 {
		opts.PendingTimeout = time.Hour
	}
	if opts.ReminderDedup <= 0 {
		opts.ReminderDedup = 24 * time.Hour
	}

	return &Sweeper{
		debts:         debts,
		notifications: notifications,
		tasks:         tasks,
		opts:          opts,
		now:           time.Now,
	}
}

// WithClock overrides the sweeper clock, for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// ProcessScheduled flushes scheduled notifications whose time has come.
// Each row is claimed (is_sent flipped) before its task is queued, so a
// concurrent sweep cannot double-send it.
func (s *Sweeper) ProcessScheduled(ctx context.Context) (int, error) {
	due, err := s.notifications.ListDueScheduled(ctx, s.now())
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, sched := range due {
		if err := s.notifications.MarkScheduledSent(ctx, sched.ID); err != nil {
			logger.Error("claiming scheduled notification", "id", sched.ID, "error", err)
			continue
		}

		if err := s.enqueueScheduled(ctx, sched); err != nil {
			logger.Error("enqueueing scheduled notification", "id", sched.ID, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		logger.Info("processed scheduled notifications", "count", processed)
	}
	return processed, nil
}

func (s *Sweeper) enqueueScheduled(ctx context.Context, sched *domain.ScheduledNotification) error {
	if sched.DebtID == nil {
		logger.Warn("scheduled notification without debt, skipping",
			"id", sched.ID, "type", sched.NotificationType)
		return nil
	}

	switch sched.NotificationType {
	case domain.NotificationTypeDebtReminder:
		return s.tasks.EnqueueDebtReminder(ctx, *sched.DebtID, nil, "", "")
	case domain.NotificationTypeDebtCreated:
		return s.tasks.EnqueueDebtCreated(ctx, *sched.DebtID)
	default:
		logger.Warn("scheduled notification with unhandled type, skipping",
			"id", sched.ID, "type", sched.NotificationType)
		return nil
	}
}

// DailyReminders queues a reminder for every overdue debt that has not
// been reminded within the dedup window. The counter moves forward here
// so the next run selects a harder template tone.
func (s *Sweeper) DailyReminders(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.debts.ListOverdueActive(ctx, now)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, debt := range overdue {
		recent, err := s.notifications.HasRecentReminder(ctx, debt.ID, now.Add(-s.opts.ReminderDedup))
		if err != nil {
			logger.Error("checking recent reminders", "debt_id", debt.ID, "error", err)
			continue
		}
		if recent {
			continue
		}

		debt.ReminderCount++
		debt.LastReminderSent = &now
		debt.UpdatedAt = now
		if err := s.debts.Update(ctx, debt); err != nil {
			logger.Error("updating reminder tracking", "debt_id", debt.ID, "error", err)
			continue
		}

		if err := s.tasks.EnqueueDebtReminder(ctx, debt.ID, nil, "", ""); err != nil {
			logger.Error("enqueueing daily reminder", "debt_id", debt.ID, "error", err)
			continue
		}
		queued++
	}

	logger.Info("daily reminder sweep finished", "overdue", len(overdue), "queued", queued)
	return queued, nil
}

// CleanupLogs prunes notification logs older than the retention window.
func (s *Sweeper) CleanupLogs(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.opts.LogRetention)
	deleted, err := s.notifications.DeleteLogsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		logger.Info("pruned notification logs", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// ReconcileTimeouts fails deliveries stuck in pending longer than the
// timeout, so the log never reports an attempt as in flight forever.
func (s *Sweeper) ReconcileTimeouts(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.opts.PendingTimeout)
	failed, err := s.notifications.FailStalePending(ctx, cutoff, "notification timed out")
	if err != nil {
		return 0, err
	}

	if failed > 0 {
		logger.Warn("failed stale pending notifications", "count", failed)
	}
	return failed, nil
}
