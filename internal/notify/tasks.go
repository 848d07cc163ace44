package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/repository"
	"github.com/jkarimi/iou-engine/pkg/logger"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
)

const (
	TaskDebtReminder        = "notification.debt_reminder"
	TaskPaymentConfirmation = "notification.payment_confirmation"
	TaskDebtCreated         = "notification.debt_created"
)

type debtReminderPayload struct {
	DebtID        uuid.UUID  `json:"debt_id"`
	TemplateID    *uuid.UUID `json:"template_id,omitempty"`
	CustomSubject string     `json:"custom_subject,omitempty"`
	CustomMessage string     `json:"custom_message,omitempty"`
}

type paymentConfirmationPayload struct {
	DebtID          uuid.UUID `json:"debt_id"`
	PaymentRecordID uuid.UUID `json:"payment_record_id"`
}

type debtCreatedPayload struct {
	DebtID uuid.UUID `json:"debt_id"`
}

// Tasks owns the background notification jobs: it loads fresh state for
// each attempt and hands a dispatch intent to the dispatcher. Loading
// inside the handler, not at enqueue time, keeps retried attempts
// working from current balances.
type Tasks struct {
	debts      repository.DebtRepository
	payments   repository.PaymentRepository
	dispatcher *Dispatcher
	resolver   *Resolver
	queue      *taskqueue.Queue
}

func NewTasks(
	debts repository.DebtRepository,
	payments repository.PaymentRepository,
	dispatcher *Dispatcher,
	resolver *Resolver,
	queue *taskqueue.Queue,
) *Tasks {
	return &Tasks{
		debts:      debts,
		payments:   payments,
		dispatcher: dispatcher,
		resolver:   resolver,
		queue:      queue,
	}
}

// RegisterAll binds every notification task handler onto the queue.
func (t *Tasks) RegisterAll() {
	t.queue.Register(TaskDebtReminder, t.handleDebtReminder)
	t.queue.Register(TaskPaymentConfirmation, t.handlePaymentConfirmation)
	t.queue.Register(TaskDebtCreated, t.handleDebtCreated)
}

// EnqueueDebtReminder queues a reminder for the debt. TemplateID or the
// custom fields, when set, override automatic template selection.
func (t *Tasks) EnqueueDebtReminder(ctx context.Context, debtID uuid.UUID, templateID *uuid.UUID, customSubject, customMessage string) error {
	return t.enqueue(ctx, TaskDebtReminder, debtReminderPayload{
		DebtID:        debtID,
		TemplateID:    templateID,
		CustomSubject: customSubject,
		CustomMessage: customMessage,
	})
}

// EnqueuePaymentConfirmation queues a confirmation for a recorded payment.
func (t *Tasks) EnqueuePaymentConfirmation(ctx context.Context, debtID, paymentRecordID uuid.UUID) error {
	return t.enqueue(ctx, TaskPaymentConfirmation, paymentConfirmationPayload{
		DebtID:          debtID,
		PaymentRecordID: paymentRecordID,
	})
}

// EnqueueDebtCreated queues the creation notice for a new debt.
func (t *Tasks) EnqueueDebtCreated(ctx context.Context, debtID uuid.UUID) error {
	return t.enqueue(ctx, TaskDebtCreated, debtCreatedPayload{DebtID: debtID})
}

func (t *Tasks) enqueue(ctx context.Context, name string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshaling %s payload", name)
	}
	return t.queue.Enqueue(ctx, name, raw)
}

func (t *Tasks) handleDebtReminder(ctx context.Context, raw []byte) error {
	var payload debtReminderPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errors.Wrap(err, "unmarshaling debt reminder payload")
	}

	debt, err := t.debts.GetByID(ctx, payload.DebtID)
	if err != nil {
		return errors.Wrapf(err, "loading debt %s", payload.DebtID)
	}
	if debt.Status == domain.DebtStatusPaid || debt.Status == domain.DebtStatusCancelled {
		logger.Info("skipping reminder for settled debt", "debt_id", debt.ID, "status", debt.Status)
		return nil
	}

	vars := debtVars(debt, time.Now())

	var custom *Content
	if payload.TemplateID != nil {
		content, err := t.resolver.ResolveReminderTemplate(ctx, *payload.TemplateID, vars)
		if err != nil {
			return err
		}
		custom = content
	} else if payload.CustomMessage != "" {
		custom = &Content{Subject: payload.CustomSubject, Body: payload.CustomMessage}
	}

	results, err := t.dispatcher.Dispatch(ctx, Intent{
		UserID:           debt.CreditorID,
		NotificationType: domain.NotificationTypeDebtReminder,
		EmailTo:          debt.DebtorEmail,
		SMSTo:            debt.DebtorPhone,
		Vars:             vars,
		Debt:             debt,
		Custom:           custom,
	})
	logResults(TaskDebtReminder, debt.ID, results)
	return err
}

func (t *Tasks) handlePaymentConfirmation(ctx context.Context, raw []byte) error {
	var payload paymentConfirmationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errors.Wrap(err, "unmarshaling payment confirmation payload")
	}

	debt, err := t.debts.GetByID(ctx, payload.DebtID)
	if err != nil {
		return errors.Wrapf(err, "loading debt %s", payload.DebtID)
	}
	payment, err := t.payments.GetByID(ctx, payload.PaymentRecordID)
	if err != nil {
		return errors.Wrapf(err, "loading payment %s", payload.PaymentRecordID)
	}

	vars := debtVars(debt, time.Now())
	vars["amount"] = payment.Amount.StringFixed(2)
	vars["remaining_amount"] = debt.Amount.StringFixed(2)
	vars["payment_date"] = payment.DatePaid.Format("2006-01-02")
	vars["debt_description"] = debt.Description

	paymentID := payment.ID
	results, err := t.dispatcher.Dispatch(ctx, Intent{
		UserID:           debt.CreditorID,
		NotificationType: domain.NotificationTypePaymentConfirmation,
		Vars:             vars,
		Debt:             debt,
		PaymentRecordID:  &paymentID,
	})
	logResults(TaskPaymentConfirmation, debt.ID, results)
	return err
}

func (t *Tasks) handleDebtCreated(ctx context.Context, raw []byte) error {
	var payload debtCreatedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errors.Wrap(err, "unmarshaling debt created payload")
	}

	debt, err := t.debts.GetByID(ctx, payload.DebtID)
	if err != nil {
		return errors.Wrapf(err, "loading debt %s", payload.DebtID)
	}

	results, err := t.dispatcher.Dispatch(ctx, Intent{
		UserID:           debt.CreditorID,
		NotificationType: domain.NotificationTypeDebtCreated,
		Vars:             debtVars(debt, time.Now()),
		Debt:             debt,
	})
	logResults(TaskDebtCreated, debt.ID, results)
	return err
}

// debtVars builds the substitution context shared by debt notifications.
func debtVars(debt *domain.Debt, now time.Time) map[string]string {
	vars := map[string]string{
		"debtor_name":  debt.DebtorName,
		"amount":       debt.Amount.StringFixed(2),
		"description":  debt.Description,
		"currency":     debt.Currency,
		"days_overdue": strconv.Itoa(debt.DaysOverdue(now)),
	}
	if debt.DueDate != nil {
		vars["due_date"] = debt.DueDate.Format("2006-01-02")
	} else {
		vars["due_date"] = ""
	}
	return vars
}

func logResults(task string, debtID uuid.UUID, results []AttemptResult) {
	for _, res := range results {
		logger.Info("notification attempt",
			"task", task,
			"debt_id", debtID,
			"channel", res.Channel,
			"status", res.Status,
			"error", res.Error,
		)
	}
}
