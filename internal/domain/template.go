package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ToneGentle       = "gentle"
	ToneHumorous     = "humorous"
	ToneProfessional = "professional"
	TonePersistent   = "persistent"
	ToneFinalNotice  = "final_notice"
)

// ReminderTemplate is a tone-based reminder with optional applicability
// windows, so the message hardens as a debt ages. Nil bounds are open.
type ReminderTemplate struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Tone             string    `json:"tone" db:"tone"`
	SubjectTemplate  string    `json:"subject_template" db:"subject_template"`
	BodyTemplate     string    `json:"body_template" db:"body_template"`
	MinReminderCount int       `json:"min_reminder_count" db:"min_reminder_count"`
	MaxReminderCount *int      `json:"max_reminder_count,omitempty" db:"max_reminder_count"`
	MinDaysOverdue   int       `json:"min_days_overdue" db:"min_days_overdue"`
	MaxDaysOverdue   *int      `json:"max_days_overdue,omitempty" db:"max_days_overdue"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Matches reports whether the template's applicability windows contain
// the debt's current reminder count and days overdue.
func (t *ReminderTemplate) Matches(reminderCount, daysOverdue int) bool {
	if reminderCount < t.MinReminderCount {
		return false
	}
	if t.MaxReminderCount != nil && reminderCount > *t.MaxReminderCount {
		return false
	}
	if daysOverdue < t.MinDaysOverdue {
		return false
	}
	if t.MaxDaysOverdue != nil && daysOverdue > *t.MaxDaysOverdue {
		return false
	}
	return true
}

const (
	NotificationTypeDebtReminder        = "debt_reminder"
	NotificationTypePaymentConfirmation = "payment_confirmation"
	NotificationTypeDebtCreated         = "debt_created"
	NotificationTypePaymentReceived     = "payment_received"
	NotificationTypeDebtSettled         = "debt_settled"
)

// NotificationTemplate holds content for one (notification type, channel)
// pair. The pair is unique among active templates.
type NotificationTemplate struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	NotificationType string    `json:"notification_type" db:"notification_type"`
	Channel          string    `json:"channel" db:"channel"`
	SubjectTemplate  string    `json:"subject_template" db:"subject_template"`
	BodyTemplate     string    `json:"body_template" db:"body_template"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
