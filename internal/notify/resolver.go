package notify

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/repository"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
	"github.com/jkarimi/iou-engine/pkg/logger"
)

// Content is resolved notification content ready to send.
type Content struct {
	Subject    string
	Body       string
	TemplateID *uuid.UUID
}

// Resolver selects a template for a notification and renders it with
// the debt's current context. Resolution happens per call: days_overdue
// shifts daily, so cached output would go stale.
type Resolver struct {
	templates repository.TemplateRepository
}

func NewResolver(templates repository.TemplateRepository) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve picks content for (notificationType, channel).
//
// Precedence is strict: caller-supplied custom content wins outright
// and skips template selection entirely, since the caller already chose
// what to say. Reminders with a debt context then go through the
// tone-window reminder templates, so the message hardens as the debt
// ages. Everything else uses the (type, channel) notification template;
// with no match anywhere, resolution fails.
func (r *Resolver) Resolve(ctx context.Context, notificationType, channel string, debt *domain.Debt, custom *Content, vars map[string]string, now time.Time) (*Content, error) {
	if custom != nil && custom.Body != "" {
		subject, _ := Render(custom.Subject, vars, false)
		body, _ := Render(custom.Body, vars, false)
		return &Content{Subject: subject, Body: body, TemplateID: custom.TemplateID}, nil
	}

	if notificationType == domain.NotificationTypeDebtReminder && debt != nil {
		if content, ok, err := r.resolveReminder(ctx, debt, vars, now); err != nil {
			return nil, err
		} else if ok {
			return content, nil
		}
	}

	tmpl, err := r.templates.GetNotificationTemplate(ctx, notificationType, channel)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapDatabaseError(err)
	}

	if tmpl != nil {
		// Strict: a template with unbound tokens goes out unsubstituted
		// rather than failing the whole send.
		subject, missingSubject := Render(tmpl.SubjectTemplate, vars, true)
		body, missingBody := Render(tmpl.BodyTemplate, vars, true)
		if len(missingSubject) > 0 || len(missingBody) > 0 {
			logger.Warn("template variables missing",
				"template", tmpl.Name,
				"missing_subject", missingSubject,
				"missing_body", missingBody,
			)
		}
		id := tmpl.ID
		return &Content{Subject: subject, Body: body, TemplateID: &id}, nil
	}

	return nil, apperrors.WrapNoContent(notificationType, channel)
}

// ResolveReminderTemplate resolves content from an explicitly chosen
// reminder template, used by the manual reminder endpoint.
func (r *Resolver) ResolveReminderTemplate(ctx context.Context, templateID uuid.UUID, vars map[string]string) (*Content, error) {
	tmpl, err := r.templates.GetReminderTemplateByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapTemplateNotFound(templateID.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	subject, _ := Render(tmpl.SubjectTemplate, vars, false)
	body, _ := Render(tmpl.BodyTemplate, vars, false)
	id := tmpl.ID
	return &Content{Subject: subject, Body: body, TemplateID: &id}, nil
}

func (r *Resolver) resolveReminder(ctx context.Context, debt *domain.Debt, vars map[string]string, now time.Time) (*Content, bool, error) {
	templates, err := r.templates.ListActiveReminderTemplates(ctx)
	if err != nil {
		return nil, false, apperrors.WrapDatabaseError(err)
	}

	reminderCount := debt.ReminderCount
	daysOverdue := debt.DaysOverdue(now)

	for _, tmpl := range templates {
		if !tmpl.Matches(reminderCount, daysOverdue) {
			continue
		}
		subject, _ := Render(tmpl.SubjectTemplate, vars, false)
		body, _ := Render(tmpl.BodyTemplate, vars, false)
		id := tmpl.ID
		return &Content{Subject: subject, Body: body, TemplateID: &id}, true, nil
	}

	return nil, false, nil
}
