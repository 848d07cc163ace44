package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/iou-engine/internal/domain"
)

// DebtRepository defines the interface for debt data operations
type DebtRepository interface {
	// Create creates a new debt
	Create(ctx context.Context, debt *domain.Debt) error

	// GetByID retrieves a debt by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error)

	// Update updates a debt's mutable fields
	Update(ctx context.Context, debt *domain.Debt) error

	// Delete removes a debt and, by cascade, its plan, payments and logs
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByCreditor retrieves all debts owned by a creditor
	ListByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*domain.Debt, error)

	// ListOverdueActive retrieves active debts whose due date is before asOf
	ListOverdueActive(ctx context.Context, asOf time.Time) ([]*domain.Debt, error)

	// Stats aggregates debt statistics for a creditor
	Stats(ctx context.Context, creditorID uuid.UUID, asOf time.Time) (*domain.DebtStats, error)
}

// PaymentPlanRepository defines the interface for payment plan operations
type PaymentPlanRepository interface {
	// Create creates a payment plan
	Create(ctx context.Context, plan *domain.PaymentPlan) error

	// GetByDebtID retrieves the plan for a debt, sql.ErrNoRows if none
	GetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.PaymentPlan, error)

	// Update updates plan progress and status
	Update(ctx context.Context, plan *domain.PaymentPlan) error
}

// PaymentRepository defines the interface for payment record operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.PaymentRecord) error

	// ListByDebtID retrieves all payments for a debt, newest first
	ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*domain.PaymentRecord, error)

	// GetByID retrieves a payment record
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error)
}

// TemplateRepository defines the interface for template lookups
type TemplateRepository interface {
	// GetNotificationTemplate retrieves the active template for a
	// (notification type, channel) pair, sql.ErrNoRows if none
	GetNotificationTemplate(ctx context.Context, notificationType, channel string) (*domain.NotificationTemplate, error)

	// ListActiveReminderTemplates retrieves active reminder templates,
	// ordered by tone then min_reminder_count
	ListActiveReminderTemplates(ctx context.Context) ([]*domain.ReminderTemplate, error)

	// GetReminderTemplateByID retrieves one reminder template
	GetReminderTemplateByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTemplate, error)
}

// NotificationRepository defines the interface for notification logs,
// preferences and scheduled notifications
type NotificationRepository interface {
	// CreateLog inserts a delivery-attempt log row
	CreateLog(ctx context.Context, log *domain.NotificationLog) error

	// MarkLogSent transitions a pending log to sent
	MarkLogSent(ctx context.Context, id uuid.UUID, externalID string, sentAt time.Time) error

	// MarkLogFailed transitions a pending log to failed
	MarkLogFailed(ctx context.Context, id uuid.UUID, errorMessage string) error

	// ListLogsByUser retrieves a user's notification history, newest first
	ListLogsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.NotificationLog, error)

	// HasRecentReminder reports whether a sent reminder exists for the
	// debt since the given time
	HasRecentReminder(ctx context.Context, debtID uuid.UUID, since time.Time) (bool, error)

	// DeleteLogsOlderThan removes logs created before cutoff
	DeleteLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// FailStalePending marks pending logs created before cutoff as failed
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)

	// GetOrCreatePreference loads a user's preference, creating the
	// default row if missing
	GetOrCreatePreference(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error)

	// UpdatePreference persists preference changes
	UpdatePreference(ctx context.Context, pref *domain.NotificationPreference) error

	// CreateScheduled inserts a deferred notification intent
	CreateScheduled(ctx context.Context, sched *domain.ScheduledNotification) error

	// ListDueScheduled retrieves unsent scheduled notifications due at or
	// before now
	ListDueScheduled(ctx context.Context, now time.Time) ([]*domain.ScheduledNotification, error)

	// MarkScheduledSent flips is_sent exactly once
	MarkScheduledSent(ctx context.Context, id uuid.UUID) error
}
