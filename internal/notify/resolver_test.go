package notify

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
	"github.com/jkarimi/iou-engine/tests/mocks"
)

func toneCatalog() []*domain.ReminderTemplate {
	maxGentleCount := 1
	maxGentleDays := 7
	maxProCount := 4
	maxProDays := 30
	return []*domain.ReminderTemplate{
		{
			ID:               uuid.New(),
			Name:             "Final Notice",
			Tone:             domain.ToneFinalNotice,
			SubjectTemplate:  "FINAL NOTICE",
			BodyTemplate:     "settle {amount} immediately",
			MinDaysOverdue:   61,
		},
		{
			ID:               uuid.New(),
			Name:             "Gentle Nudge",
			Tone:             domain.ToneGentle,
			SubjectTemplate:  "Quick reminder",
			BodyTemplate:     "no rush, {debtor_name}",
			MaxReminderCount: &maxGentleCount,
			MaxDaysOverdue:   &maxGentleDays,
		},
		{
			ID:               uuid.New(),
			Name:             "Professional Follow-up",
			Tone:             domain.ToneProfessional,
			SubjectTemplate:  "Outstanding balance",
			BodyTemplate:     "{days_overdue} days overdue",
			MinReminderCount: 2,
			MaxReminderCount: &maxProCount,
			MinDaysOverdue:   8,
			MaxDaysOverdue:   &maxProDays,
		},
	}
}

func reminderDebt(daysOverdue, reminderCount int) *domain.Debt {
	due := testNow.AddDate(0, 0, -daysOverdue)
	return &domain.Debt{
		ID:            uuid.New(),
		Status:        domain.DebtStatusActive,
		DueDate:       &due,
		ReminderCount: reminderCount,
	}
}

func TestResolve_ReminderToneHardensWithAge(t *testing.T) {
	templates := &mocks.MockTemplateRepository{}
	templates.On("ListActiveReminderTemplates", mock.Anything).Return(toneCatalog(), nil)
	r := NewResolver(templates)

	cases := []struct {
		name          string
		daysOverdue   int
		reminderCount int
		wantSubject   string
	}{
		{"fresh debt gets gentle tone", 3, 0, "Quick reminder"},
		{"repeat reminders get professional tone", 15, 3, "Outstanding balance"},
		{"old debt gets final notice", 90, 1, "FINAL NOTICE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			debt := reminderDebt(tc.daysOverdue, tc.reminderCount)
			content, err := r.Resolve(context.Background(), domain.NotificationTypeDebtReminder,
				domain.ChannelEmail, debt, nil, map[string]string{}, testNow)

			assert.NoError(t, err)
			assert.Equal(t, tc.wantSubject, content.Subject)
			assert.NotNil(t, content.TemplateID)
		})
	}
}

func TestResolve_ReminderFallsBackToNotificationTemplate(t *testing.T) {
	templates := &mocks.MockTemplateRepository{}
	// 40 days overdue with 0 reminders fits no tone window
	templates.On("ListActiveReminderTemplates", mock.Anything).Return(toneCatalog(), nil)
	templates.On("GetNotificationTemplate", mock.Anything, domain.NotificationTypeDebtReminder, domain.ChannelEmail).
		Return(&domain.NotificationTemplate{
			ID:              uuid.New(),
			SubjectTemplate: "Reminder: {amount}",
			BodyTemplate:    "you owe {amount}",
		}, nil)
	r := NewResolver(templates)

	debt := reminderDebt(40, 0)
	content, err := r.Resolve(context.Background(), domain.NotificationTypeDebtReminder,
		domain.ChannelEmail, debt, nil, map[string]string{"amount": "500.00"}, testNow)

	assert.NoError(t, err)
	assert.Equal(t, "Reminder: 500.00", content.Subject)
	assert.Equal(t, "you owe 500.00", content.Body)
}

func TestResolve_StrictTemplateWithMissingVarsGoesOutUnsubstituted(t *testing.T) {
	templates := &mocks.MockTemplateRepository{}
	templates.On("GetNotificationTemplate", mock.Anything, domain.NotificationTypePaymentConfirmation, domain.ChannelEmail).
		Return(&domain.NotificationTemplate{
			ID:              uuid.New(),
			SubjectTemplate: "Payment of {amount}",
			BodyTemplate:    "received {amount} on {payment_date}",
		}, nil)
	r := NewResolver(templates)

	content, err := r.Resolve(context.Background(), domain.NotificationTypePaymentConfirmation,
		domain.ChannelEmail, nil, nil, map[string]string{"amount": "100.00"}, testNow)

	assert.NoError(t, err)
	// Subject and body render independently: only the body has an
	// unbound token, so only the body ships as authored.
	assert.Equal(t, "Payment of 100.00", content.Subject)
	assert.Equal(t, "received {amount} on {payment_date}", content.Body)
}

func TestResolve_CustomContentWins(t *testing.T) {
	templates := &mocks.MockTemplateRepository{}
	r := NewResolver(templates)

	debt := reminderDebt(3, 0)
	content, err := r.Resolve(context.Background(), domain.NotificationTypeDebtReminder,
		domain.ChannelEmail, debt, &Content{Subject: "Hello {debtor_name}", Body: "pay me"},
		map[string]string{"debtor_name": "Alice"}, testNow)

	assert.NoError(t, err)
	assert.Equal(t, "Hello Alice", content.Subject)
	assert.Equal(t, "pay me", content.Body)
	templates.AssertNotCalled(t, "ListActiveReminderTemplates", mock.Anything)
}

func TestResolveReminderTemplate_NotFound(t *testing.T) {
	templates := &mocks.MockTemplateRepository{}
	templateID := uuid.New()
	templates.On("GetReminderTemplateByID", mock.Anything, templateID).Return(nil, sql.ErrNoRows)
	r := NewResolver(templates)

	_, err := r.ResolveReminderTemplate(context.Background(), templateID, nil)

	var bizErr *apperrors.BusinessError
	assert.ErrorAs(t, err, &bizErr)
	assert.Equal(t, apperrors.ErrCodeTemplateNotFound, bizErr.Code)
}
