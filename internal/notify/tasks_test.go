package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/tests/mocks"
)

func TestHandleDebtReminder_SkipsSettledDebt(t *testing.T) {
	debts := &mocks.MockDebtRepository{}
	payments := &mocks.MockPaymentRepository{}

	paid := &domain.Debt{
		ID:     uuid.New(),
		Status: domain.DebtStatusPaid,
	}
	debts.On("GetByID", mock.Anything, paid.ID).Return(paid, nil)

	// A nil dispatcher would panic if the handler tried to send.
	tasks := NewTasks(debts, payments, nil, nil, nil)

	raw, err := json.Marshal(debtReminderPayload{DebtID: paid.ID})
	assert.NoError(t, err)

	assert.NoError(t, tasks.handleDebtReminder(context.Background(), raw))
}

func TestHandlePaymentConfirmation_BuildsVars(t *testing.T) {
	debts := &mocks.MockDebtRepository{}
	payments := &mocks.MockPaymentRepository{}
	notifications := &mocks.MockNotificationRepository{}
	templates := &mocks.MockTemplateRepository{}
	mail := &mocks.MockMailSender{}
	sms := &mocks.MockSMSSender{}

	creditorID := uuid.New()
	debt := &domain.Debt{
		ID:             uuid.New(),
		DebtorName:     "Alice",
		Description:    "shared rent",
		Amount:         decimal.NewFromInt(600),
		OriginalAmount: decimal.NewFromInt(1000),
		Currency:       "KES",
		Status:         domain.DebtStatusActive,
		CreditorID:     creditorID,
	}
	payment := &domain.PaymentRecord{
		ID:       uuid.New(),
		DebtID:   debt.ID,
		Amount:   decimal.NewFromInt(400),
		DatePaid: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
	}

	debts.On("GetByID", mock.Anything, debt.ID).Return(debt, nil)
	payments.On("GetByID", mock.Anything, payment.ID).Return(payment, nil)

	pref := domain.DefaultPreference(creditorID)
	pref.Email = "creditor@example.com"
	notifications.On("GetOrCreatePreference", mock.Anything, creditorID).Return(pref, nil)
	notifications.On("CreateLog", mock.Anything, mock.MatchedBy(func(log *domain.NotificationLog) bool {
		return log.PaymentRecordID != nil && *log.PaymentRecordID == payment.ID
	})).Return(nil)
	notifications.On("MarkLogSent", mock.Anything, mock.Anything, "", mock.Anything).Return(nil)

	templates.On("GetNotificationTemplate", mock.Anything, domain.NotificationTypePaymentConfirmation, domain.ChannelEmail).
		Return(&domain.NotificationTemplate{
			ID:              uuid.New(),
			SubjectTemplate: "Payment of {amount} from {debtor_name}",
			BodyTemplate:    "Received {amount} on {payment_date}. Remaining: {remaining_amount}.",
		}, nil)

	mail.On("Send", mock.Anything, "creditor@example.com",
		"Payment of 400.00 from Alice",
		"Received 400.00 on 2025-06-15. Remaining: 600.00.").Return(nil)

	dispatcher := NewDispatcher(notifications, NewResolver(templates), mail, sms, Config{EmailEnabled: true, SMSEnabled: true})
	tasks := NewTasks(debts, payments, dispatcher, NewResolver(templates), nil)

	raw, err := json.Marshal(paymentConfirmationPayload{DebtID: debt.ID, PaymentRecordID: payment.ID})
	assert.NoError(t, err)

	assert.NoError(t, tasks.handlePaymentConfirmation(context.Background(), raw))
	mail.AssertExpectations(t)
	sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
