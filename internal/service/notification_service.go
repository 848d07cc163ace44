package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/repository"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
)

const defaultHistoryLimit = 50

// NotificationService exposes a user's notification preferences, history
// and the reminder template catalog.
type NotificationService struct {
	notifications repository.NotificationRepository
	templates     repository.TemplateRepository
	now           func() time.Time
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	templates repository.TemplateRepository,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		templates:     templates,
		now:           time.Now,
	}
}

// GetPreferences loads the user's preferences, creating the defaults on
// first access.
func (s *NotificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	pref, err := s.notifications.GetOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return pref, nil
}

// UpdatePreferences applies a partial update; unset fields keep their
// current values.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req *domain.UpdatePreferenceRequest) (*domain.NotificationPreference, error) {
	pref, err := s.notifications.GetOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	applyPreferenceUpdate(pref, req)
	pref.UpdatedAt = s.now()

	if err := s.notifications.UpdatePreference(ctx, pref); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return pref, nil
}

// History lists the user's notification log, newest first.
func (s *NotificationService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.NotificationLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	logs, err := s.notifications.ListLogsByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return logs, nil
}

// ListReminderTemplates returns the active reminder template catalog.
func (s *NotificationService) ListReminderTemplates(ctx context.Context) ([]*domain.ReminderTemplate, error) {
	templates, err := s.templates.ListActiveReminderTemplates(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return templates, nil
}

func applyPreferenceUpdate(pref *domain.NotificationPreference, req *domain.UpdatePreferenceRequest) {
	if req.EmailEnabled != nil {
		pref.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		pref.SMSEnabled = *req.SMSEnabled
	}
	if req.Email != nil {
		pref.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		pref.PhoneNumber = *req.PhoneNumber
	}
	if req.DebtRemindersEmail != nil {
		pref.DebtRemindersEmail = *req.DebtRemindersEmail
	}
	if req.DebtRemindersSMS != nil {
		pref.DebtRemindersSMS = *req.DebtRemindersSMS
	}
	if req.PaymentConfirmationsEmail != nil {
		pref.PaymentConfirmationsEmail = *req.PaymentConfirmationsEmail
	}
	if req.PaymentConfirmationsSMS != nil {
		pref.PaymentConfirmationsSMS = *req.PaymentConfirmationsSMS
	}
	if req.DebtCreatedEmail != nil {
		pref.DebtCreatedEmail = *req.DebtCreatedEmail
	}
	if req.DebtCreatedSMS != nil {
		pref.DebtCreatedSMS = *req.DebtCreatedSMS
	}
	if req.ReminderFrequencyDays != nil {
		pref.ReminderFrequencyDays = *req.ReminderFrequencyDays
	}
}
