package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateLog(ctx context.Context, log *domain.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (id, user_id, debt_id, payment_record_id,
			notification_type, channel, recipient, subject, message_body, status,
			external_id, error_message, sent_at, delivered_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.DebtID,
		log.PaymentRecordID,
		log.NotificationType,
		log.Channel,
		log.Recipient,
		log.Subject,
		log.MessageBody,
		log.Status,
		log.ExternalID,
		log.ErrorMessage,
		log.SentAt,
		log.DeliveredAt,
		log.CreatedAt,
	)

	return err
}

func (r *notificationRepository) MarkLogSent(ctx context.Context, id uuid.UUID, externalID string, sentAt time.Time) error {
	query := `
		UPDATE notification_logs
		SET status = 'sent', external_id = $2, sent_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query, id, externalID, sentAt)
	return err
}

func (r *notificationRepository) MarkLogFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE notification_logs
		SET status = 'failed', error_message = $2
		WHERE id = $1 AND status = 'pending'
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query, id, errorMessage)
	return err
}

func (r *notificationRepository) ListLogsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.NotificationLog, error) {
	query := `
		SELECT id, user_id, debt_id, payment_record_id, notification_type,
			channel, recipient, subject, message_body, status, external_id,
			error_message, sent_at, delivered_at, created_at
		FROM notification_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var logs []*domain.NotificationLog
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &logs, query, userID, limit); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *notificationRepository) HasRecentReminder(ctx context.Context, debtID uuid.UUID, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_logs
			WHERE debt_id = $1 AND notification_type = 'debt_reminder'
				AND status = 'sent' AND sent_at >= $2
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &exists, query, debtID, since); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *notificationRepository) DeleteLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := extFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM notification_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *notificationRepository) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	query := `
		UPDATE notification_logs
		SET status = 'failed', error_message = $2
		WHERE status = 'pending' AND created_at < $1
	`

	result, err := extFrom(ctx, r.db).ExecContext(ctx, query, cutoff, reason)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *notificationRepository) GetOrCreatePreference(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	query := `
		SELECT user_id, email_enabled, sms_enabled, email, phone_number,
			debt_reminders_email, debt_reminders_sms,
			payment_confirmations_email, payment_confirmations_sms,
			debt_created_email, debt_created_sms, reminder_frequency_days,
			created_at, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`

	var pref domain.NotificationPreference
	err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &pref, query, userID)
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// First use: insert defaults. ON CONFLICT guards the race between two
	// concurrent first dispatches for the same user.
	insert := `
		INSERT INTO notification_preferences (user_id, email_enabled, sms_enabled,
			email, phone_number, debt_reminders_email, debt_reminders_sms,
			payment_confirmations_email, payment_confirmations_sms,
			debt_created_email, debt_created_sms, reminder_frequency_days,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (user_id) DO NOTHING
	`

	def := domain.DefaultPreference(userID)
	if _, err := extFrom(ctx, r.db).ExecContext(ctx, insert,
		def.UserID,
		def.EmailEnabled,
		def.SMSEnabled,
		def.Email,
		def.PhoneNumber,
		def.DebtRemindersEmail,
		def.DebtRemindersSMS,
		def.PaymentConfirmationsEmail,
		def.PaymentConfirmationsSMS,
		def.DebtCreatedEmail,
		def.DebtCreatedSMS,
		def.ReminderFrequencyDays,
	); err != nil {
		return nil, err
	}

	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &pref, query, userID); err != nil {
		return nil, err
	}

	return &pref, nil
}

func (r *notificationRepository) UpdatePreference(ctx context.Context, pref *domain.NotificationPreference) error {
	query := `
		UPDATE notification_preferences
		SET email_enabled = $2, sms_enabled = $3, email = $4, phone_number = $5,
			debt_reminders_email = $6, debt_reminders_sms = $7,
			payment_confirmations_email = $8, payment_confirmations_sms = $9,
			debt_created_email = $10, debt_created_sms = $11,
			reminder_frequency_days = $12, updated_at = $13
		WHERE user_id = $1
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		pref.UserID,
		pref.EmailEnabled,
		pref.SMSEnabled,
		pref.Email,
		pref.PhoneNumber,
		pref.DebtRemindersEmail,
		pref.DebtRemindersSMS,
		pref.PaymentConfirmationsEmail,
		pref.PaymentConfirmationsSMS,
		pref.DebtCreatedEmail,
		pref.DebtCreatedSMS,
		pref.ReminderFrequencyDays,
		time.Now(),
	)

	return err
}

func (r *notificationRepository) CreateScheduled(ctx context.Context, sched *domain.ScheduledNotification) error {
	query := `
		INSERT INTO scheduled_notifications (id, user_id, debt_id,
			notification_type, channel, scheduled_for, is_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		sched.ID,
		sched.UserID,
		sched.DebtID,
		sched.NotificationType,
		sched.Channel,
		sched.ScheduledFor,
		sched.IsSent,
		sched.CreatedAt,
	)

	return err
}

func (r *notificationRepository) ListDueScheduled(ctx context.Context, now time.Time) ([]*domain.ScheduledNotification, error) {
	query := `
		SELECT id, user_id, debt_id, notification_type, channel,
			scheduled_for, is_sent, created_at
		FROM scheduled_notifications
		WHERE scheduled_for <= $1 AND is_sent = false
		ORDER BY scheduled_for
	`

	var due []*domain.ScheduledNotification
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &due, query, now); err != nil {
		return nil, err
	}

	return due, nil
}

func (r *notificationRepository) MarkScheduledSent(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE scheduled_notifications SET is_sent = true WHERE id = $1 AND is_sent = false`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query, id)
	return err
}
