package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/tests/mocks"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func allChannelsPreference(userID uuid.UUID) *domain.NotificationPreference {
	pref := domain.DefaultPreference(userID)
	pref.SMSEnabled = true
	pref.DebtRemindersSMS = true
	pref.PaymentConfirmationsSMS = true
	pref.Email = "creditor@example.com"
	pref.PhoneNumber = "+254700000001"
	return pref
}

func overdueDebt(creditorID uuid.UUID) *domain.Debt {
	due := testNow.AddDate(0, 0, -10)
	return &domain.Debt{
		ID:            uuid.New(),
		DebtorName:    "Alice",
		DebtorEmail:   "alice@example.com",
		DebtorPhone:   "+254700000002",
		Description:   "lunch money",
		Status:        domain.DebtStatusActive,
		DueDate:       &due,
		ReminderCount: 0,
		CreditorID:    creditorID,
	}
}

func newTestDispatcher(notifications *mocks.MockNotificationRepository, templates *mocks.MockTemplateRepository, mail *mocks.MockMailSender, sms *mocks.MockSMSSender) *Dispatcher {
	return NewDispatcher(notifications, NewResolver(templates), mail, sms, Config{
		EmailEnabled: true,
		SMSEnabled:   true,
	}).WithClock(func() time.Time { return testNow })
}

func TestDispatch_OneChannelFailureDoesNotBlockOther(t *testing.T) {
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	debt := overdueDebt(creditorID)

	maxDays := 30
	templates.On("ListActiveReminderTemplates", mock.Anything).Return([]*domain.ReminderTemplate{
		{
			ID:             uuid.New(),
			Name:           "Gentle Nudge",
			Tone:           domain.ToneGentle,
			BodyTemplate:   "Hi {debtor_name}, please settle {description}",
			MaxDaysOverdue: &maxDays,
		},
	}, nil)

	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(allChannelsPreference(creditorID), nil)
	notifications.On("CreateLog", mock.Anything, mock.Anything).Return(nil)
	notifications.On("MarkLogSent", mock.Anything, mock.Anything, "", testNow).Return(nil)
	notifications.On("MarkLogFailed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	mail.On("Send", mock.Anything, "alice@example.com", mock.Anything, "Hi Alice, please settle lunch money").Return(nil)
	sms.On("Send", mock.Anything, "+254700000002", mock.Anything).Return("", errors.New("provider down"))

	d := newTestDispatcher(notifications, templates, mail, sms)

	results, err := d.Dispatch(context.Background(), Intent{
		UserID:           creditorID,
		NotificationType: domain.NotificationTypeDebtReminder,
		EmailTo:          debt.DebtorEmail,
		SMSTo:            debt.DebtorPhone,
		Vars:             map[string]string{"debtor_name": "Alice", "description": "lunch money"},
		Debt:             debt,
	})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, domain.ChannelEmail, results[0].Channel)
	assert.Equal(t, domain.NotificationStatusSent, results[0].Status)
	assert.Equal(t, domain.ChannelSMS, results[1].Channel)
	assert.Equal(t, domain.NotificationStatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "provider down")

	notifications.AssertExpectations(t)
	mail.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestDispatch_DefaultPreferenceSkipsSMS(t *testing.T) {
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	debt := overdueDebt(creditorID)

	templates.On("ListActiveReminderTemplates", mock.Anything).Return([]*domain.ReminderTemplate{
		{ID: uuid.New(), Tone: domain.ToneGentle, BodyTemplate: "pay up {debtor_name}"},
	}, nil)

	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(domain.DefaultPreference(creditorID), nil)
	notifications.On("CreateLog", mock.Anything, mock.Anything).Return(nil)
	notifications.On("MarkLogSent", mock.Anything, mock.Anything, "", testNow).Return(nil)

	mail.On("Send", mock.Anything, "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	d := newTestDispatcher(notifications, templates, mail, sms)

	results, err := d.Dispatch(context.Background(), Intent{
		UserID:           creditorID,
		NotificationType: domain.NotificationTypeDebtReminder,
		EmailTo:          debt.DebtorEmail,
		SMSTo:            debt.DebtorPhone,
		Vars:             map[string]string{"debtor_name": "Alice"},
		Debt:             debt,
	})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, domain.ChannelEmail, results[0].Channel)
	sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_NoRecipientSkipsChannel(t *testing.T) {
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	pref := domain.DefaultPreference(creditorID) // no email on record

	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(pref, nil)

	d := newTestDispatcher(notifications, templates, mail, sms)

	results, err := d.Dispatch(context.Background(), Intent{
		UserID:           creditorID,
		NotificationType: domain.NotificationTypePaymentConfirmation,
		Vars:             map[string]string{},
	})

	assert.NoError(t, err)
	assert.Empty(t, results)
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_NoContentRecordsFailedLog(t *testing.T) {
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	pref := domain.DefaultPreference(creditorID)
	pref.Email = "creditor@example.com"

	templates.On("GetNotificationTemplate", mock.Anything, domain.NotificationTypePaymentConfirmation, domain.ChannelEmail).
		Return(nil, sql.ErrNoRows)
	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(pref, nil)
	notifications.On("CreateLog", mock.Anything, mock.MatchedBy(func(log *domain.NotificationLog) bool {
		return log.Status == domain.NotificationStatusFailed && log.ErrorMessage != ""
	})).Return(nil)

	d := newTestDispatcher(notifications, templates, mail, sms)

	results, err := d.Dispatch(context.Background(), Intent{
		UserID:           creditorID,
		NotificationType: domain.NotificationTypePaymentConfirmation,
		Vars:             map[string]string{},
	})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, domain.NotificationStatusFailed, results[0].Status)
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifications.AssertExpectations(t)
}

func TestDispatch_SMSKeepsProviderMessageID(t *testing.T) {
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	pref := allChannelsPreference(creditorID)
	pref.EmailEnabled = false

	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(pref, nil)
	notifications.On("CreateLog", mock.Anything, mock.Anything).Return(nil)
	notifications.On("MarkLogSent", mock.Anything, mock.Anything, "msg-123", testNow).Return(nil)

	sms.On("Send", mock.Anything, "+254700000001", "custom body").Return("msg-123", nil)

	d := newTestDispatcher(notifications, templates, mail, sms)

	results, err := d.Dispatch(context.Background(), Intent{
		UserID:           creditorID,
		NotificationType: domain.NotificationTypePaymentConfirmation,
		Vars:             map[string]string{},
		Custom:           &Content{Body: "custom body"},
	})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, domain.NotificationStatusSent, results[0].Status)
	notifications.AssertExpectations(t)
}
