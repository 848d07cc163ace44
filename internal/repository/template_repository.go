package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) GetNotificationTemplate(ctx context.Context, notificationType, channel string) (*domain.NotificationTemplate, error) {
	query := `
		SELECT id, name, notification_type, channel, subject_template,
			body_template, is_active, created_at, updated_at
		FROM notification_templates
		WHERE notification_type = $1 AND channel = $2 AND is_active = true
	`

	var tmpl domain.NotificationTemplate
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &tmpl, query, notificationType, channel); err != nil {
		return nil, err
	}

	return &tmpl, nil
}

func (r *templateRepository) ListActiveReminderTemplates(ctx context.Context) ([]*domain.ReminderTemplate, error) {
	query := `
		SELECT id, name, tone, subject_template, body_template,
			min_reminder_count, max_reminder_count, min_days_overdue,
			max_days_overdue, is_active, created_at
		FROM reminder_templates
		WHERE is_active = true
		ORDER BY tone, min_reminder_count
	`

	var templates []*domain.ReminderTemplate
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &templates, query); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *templateRepository) GetReminderTemplateByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTemplate, error) {
	query := `
		SELECT id, name, tone, subject_template, body_template,
			min_reminder_count, max_reminder_count, min_days_overdue,
			max_days_overdue, is_active, created_at
		FROM reminder_templates
		WHERE id = $1
	`

	var tmpl domain.ReminderTemplate
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &tmpl, query, id); err != nil {
		return nil, err
	}

	return &tmpl, nil
}
