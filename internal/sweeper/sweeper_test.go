package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
	"github.com/jkarimi/iou-engine/tests/mocks"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

type sweeperFixture struct {
	debts         *mocks.MockDebtRepository
	notifications *mocks.MockNotificationRepository
	queue         *taskqueue.Queue
	sweeper       *Sweeper
}

func newFixture() *sweeperFixture {
	f := &sweeperFixture{
		debts:         &mocks.MockDebtRepository{},
		notifications: &mocks.MockNotificationRepository{},
	}

	f.queue = taskqueue.New(taskqueue.Options{})
	payments := &mocks.MockPaymentRepository{}
	tasks := notify.NewTasks(f.debts, payments, nil, nil, f.queue)
	tasks.RegisterAll()

	f.sweeper = New(f.debts, f.notifications, tasks, Options{}).
		WithClock(func() time.Time { return testNow })

	return f
}

func overdueDebt(daysOverdue int) *domain.Debt {
	due := testNow.AddDate(0, 0, -daysOverdue)
	return &domain.Debt{
		ID:          uuid.New(),
		DebtorName:  "Alice",
		DebtorEmail: "alice@example.com",
		Amount:      decimal.NewFromInt(500),
		Status:      domain.DebtStatusActive,
		DueDate:     &due,
		CreditorID:  uuid.New(),
	}
}

func TestProcessScheduled_ClaimsBeforeQueueing(t *testing.T) {
	f := newFixture()

	debtID := uuid.New()
	sched := &domain.ScheduledNotification{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		DebtID:           &debtID,
		NotificationType: domain.NotificationTypeDebtReminder,
		ScheduledFor:     testNow.Add(-10 * time.Minute),
	}

	f.notifications.On("ListDueScheduled", mock.Anything, testNow).Return([]*domain.ScheduledNotification{sched}, nil)
	f.notifications.On("MarkScheduledSent", mock.Anything, sched.ID).Return(nil)

	processed, err := f.sweeper.ProcessScheduled(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, f.queue.Pending())
	f.notifications.AssertExpectations(t)
}

func TestProcessScheduled_SkipsRowWhenClaimFails(t *testing.T) {
	f := newFixture()

	debtID := uuid.New()
	sched := &domain.ScheduledNotification{
		ID:               uuid.New(),
		DebtID:           &debtID,
		NotificationType: domain.NotificationTypeDebtReminder,
	}

	f.notifications.On("ListDueScheduled", mock.Anything, testNow).Return([]*domain.ScheduledNotification{sched}, nil)
	f.notifications.On("MarkScheduledSent", mock.Anything, sched.ID).Return(errors.New("row gone"))

	processed, err := f.sweeper.ProcessScheduled(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Equal(t, 0, f.queue.Pending())
}

func TestDailyReminders_DedupWithinWindow(t *testing.T) {
	f := newFixture()

	reminded := overdueDebt(5)
	fresh := overdueDebt(12)

	f.debts.On("ListOverdueActive", mock.Anything, testNow).Return([]*domain.Debt{reminded, fresh}, nil)

	since := testNow.Add(-24 * time.Hour)
	f.notifications.On("HasRecentReminder", mock.Anything, reminded.ID, since).Return(true, nil)
	f.notifications.On("HasRecentReminder", mock.Anything, fresh.ID, since).Return(false, nil)
	f.debts.On("Update", mock.Anything, fresh).Return(nil)

	queued, err := f.sweeper.DailyReminders(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Equal(t, 1, f.queue.Pending())
	assert.Equal(t, 1, fresh.ReminderCount)
	assert.Equal(t, testNow, *fresh.LastReminderSent)
	assert.Equal(t, 0, reminded.ReminderCount, "recently reminded debt untouched")
	f.debts.AssertNotCalled(t, "Update", mock.Anything, reminded)
}

func TestCleanupLogs_UsesRetentionWindow(t *testing.T) {
	f := newFixture()

	cutoff := testNow.Add(-90 * 24 * time.Hour)
	f.notifications.On("DeleteLogsOlderThan", mock.Anything, cutoff).Return(int64(17), nil)

	deleted, err := f.sweeper.CleanupLogs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(17), deleted)
}

func TestReconcileTimeouts_FailsStalePending(t *testing.T) {
	f := newFixture()

	cutoff := testNow.Add(-time.Hour)
	f.notifications.On("FailStalePending", mock.Anything, cutoff, "notification timed out").Return(int64(3), nil)

	failed, err := f.sweeper.ReconcileTimeouts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), failed)
}
