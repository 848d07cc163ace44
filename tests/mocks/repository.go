package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) Create(ctx context.Context, debt *domain.Debt) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockDebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Debt), args.Error(1)
}

func (m *MockDebtRepository) Update(ctx context.Context, debt *domain.Debt) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockDebtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDebtRepository) ListByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*domain.Debt, error) {
	args := m.Called(ctx, creditorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Debt), args.Error(1)
}

func (m *MockDebtRepository) ListOverdueActive(ctx context.Context, asOf time.Time) ([]*domain.Debt, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Debt), args.Error(1)
}

func (m *MockDebtRepository) Stats(ctx context.Context, creditorID uuid.UUID, asOf time.Time) (*domain.DebtStats, error) {
	args := m.Called(ctx, creditorID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DebtStats), args.Error(1)
}

type MockPaymentPlanRepository struct {
	mock.Mock
}

func (m *MockPaymentPlanRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPaymentPlanRepository) GetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.PaymentPlan, error) {
	args := m.Called(ctx, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentPlan), args.Error(1)
}

func (m *MockPaymentPlanRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.PaymentRecord) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*domain.PaymentRecord, error) {
	args := m.Called(ctx, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) GetNotificationTemplate(ctx context.Context, notificationType, channel string) (*domain.NotificationTemplate, error) {
	args := m.Called(ctx, notificationType, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationTemplate), args.Error(1)
}

func (m *MockTemplateRepository) ListActiveReminderTemplates(ctx context.Context) ([]*domain.ReminderTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReminderTemplate), args.Error(1)
}

func (m *MockTemplateRepository) GetReminderTemplateByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderTemplate), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateLog(ctx context.Context, log *domain.NotificationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkLogSent(ctx context.Context, id uuid.UUID, externalID string, sentAt time.Time) error {
	args := m.Called(ctx, id, externalID, sentAt)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkLogFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListLogsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.NotificationLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationLog), args.Error(1)
}

func (m *MockNotificationRepository) HasRecentReminder(ctx context.Context, debtID uuid.UUID, since time.Time) (bool, error) {
	args := m.Called(ctx, debtID, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) DeleteLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	args := m.Called(ctx, cutoff, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) GetOrCreatePreference(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationPreference), args.Error(1)
}

func (m *MockNotificationRepository) UpdatePreference(ctx context.Context, pref *domain.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateScheduled(ctx context.Context, sched *domain.ScheduledNotification) error {
	args := m.Called(ctx, sched)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]*domain.ScheduledNotification, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledNotification), args.Error(1)
}

func (m *MockNotificationRepository) MarkScheduledSent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTransactor runs the unit of work directly without a database.
type MockTransactor struct{}

func (MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
