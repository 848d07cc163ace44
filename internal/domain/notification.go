package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	NotificationStatusPending   = "pending"
	NotificationStatusSent      = "sent"
	NotificationStatusFailed    = "failed"
	NotificationStatusDelivered = "delivered"
	NotificationStatusBounced   = "bounced"
	NotificationStatusClicked   = "clicked"
)

// NotificationLog records one delivery attempt. Its status is a one-way
// state machine: pending -> {sent, failed}; sent -> {delivered, bounced,
// clicked} via the external status-update channel.
type NotificationLog struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	DebtID           *uuid.UUID `json:"debt_id,omitempty" db:"debt_id"`
	PaymentRecordID  *uuid.UUID `json:"payment_record_id,omitempty" db:"payment_record_id"`
	NotificationType string     `json:"notification_type" db:"notification_type"`
	Channel          string     `json:"channel" db:"channel"`
	Recipient        string     `json:"recipient" db:"recipient"`
	Subject          string     `json:"subject" db:"subject"`
	MessageBody      string     `json:"message_body" db:"message_body"`
	Status           string     `json:"status" db:"status"`
	ExternalID       string     `json:"external_id" db:"external_id"`
	ErrorMessage     string     `json:"error_message" db:"error_message"`
	SentAt           *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// NotificationPreference holds a user's channel and per-type settings.
// Lazily created with email on, SMS off.
type NotificationPreference struct {
	UserID                    uuid.UUID `json:"user_id" db:"user_id"`
	EmailEnabled              bool      `json:"email_enabled" db:"email_enabled"`
	SMSEnabled                bool      `json:"sms_enabled" db:"sms_enabled"`
	Email                     string    `json:"email" db:"email"`
	PhoneNumber               string    `json:"phone_number" db:"phone_number"`
	DebtRemindersEmail        bool      `json:"debt_reminders_email" db:"debt_reminders_email"`
	DebtRemindersSMS          bool      `json:"debt_reminders_sms" db:"debt_reminders_sms"`
	PaymentConfirmationsEmail bool      `json:"payment_confirmations_email" db:"payment_confirmations_email"`
	PaymentConfirmationsSMS   bool      `json:"payment_confirmations_sms" db:"payment_confirmations_sms"`
	DebtCreatedEmail          bool      `json:"debt_created_email" db:"debt_created_email"`
	DebtCreatedSMS            bool      `json:"debt_created_sms" db:"debt_created_sms"`
	ReminderFrequencyDays     int       `json:"reminder_frequency_days" db:"reminder_frequency_days"`
	CreatedAt                 time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreference returns the preference row created on first use.
func DefaultPreference(userID uuid.UUID) *NotificationPreference {
	return &NotificationPreference{
		UserID:                    userID,
		EmailEnabled:              true,
		SMSEnabled:                false,
		DebtRemindersEmail:        true,
		DebtRemindersSMS:          false,
		PaymentConfirmationsEmail: true,
		PaymentConfirmationsSMS:   false,
		DebtCreatedEmail:          true,
		DebtCreatedSMS:            false,
		ReminderFrequencyDays:     7,
	}
}

// Allows reports whether the given notification type may go out on the
// given channel for this user. Unknown types default to email yes, SMS no.
func (p *NotificationPreference) Allows(notificationType, channel string) bool {
	switch channel {
	case ChannelEmail:
		switch notificationType {
		case NotificationTypeDebtReminder:
			return p.DebtRemindersEmail
		case NotificationTypePaymentConfirmation:
			return p.PaymentConfirmationsEmail
		case NotificationTypeDebtCreated:
			return p.DebtCreatedEmail
		default:
			return true
		}
	case ChannelSMS:
		switch notificationType {
		case NotificationTypeDebtReminder:
			return p.DebtRemindersSMS
		case NotificationTypePaymentConfirmation:
			return p.PaymentConfirmationsSMS
		case NotificationTypeDebtCreated:
			return p.DebtCreatedSMS
		default:
			return false
		}
	default:
		return false
	}
}

// ScheduledNotification is a deferred notification intent picked up by
// the periodic sweep once scheduled_for passes.
type ScheduledNotification struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	DebtID           *uuid.UUID `json:"debt_id,omitempty" db:"debt_id"`
	NotificationType string     `json:"notification_type" db:"notification_type"`
	Channel          string     `json:"channel" db:"channel"`
	ScheduledFor     time.Time  `json:"scheduled_for" db:"scheduled_for"`
	IsSent           bool       `json:"is_sent" db:"is_sent"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

type UpdatePreferenceRequest struct {
	EmailEnabled              *bool   `json:"email_enabled"`
	SMSEnabled                *bool   `json:"sms_enabled"`
	Email                     *string `json:"email" validate:"omitempty,email"`
	PhoneNumber               *string `json:"phone_number"`
	DebtRemindersEmail        *bool   `json:"debt_reminders_email"`
	DebtRemindersSMS          *bool   `json:"debt_reminders_sms"`
	PaymentConfirmationsEmail *bool   `json:"payment_confirmations_email"`
	PaymentConfirmationsSMS   *bool   `json:"payment_confirmations_sms"`
	DebtCreatedEmail          *bool   `json:"debt_created_email"`
	DebtCreatedSMS            *bool   `json:"debt_created_sms"`
	ReminderFrequencyDays     *int    `json:"reminder_frequency_days" validate:"omitempty,gte=1"`
}
