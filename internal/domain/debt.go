package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DebtStatusActive    = "active"
	DebtStatusPaid      = "paid"
	DebtStatusOverdue   = "overdue"
	DebtStatusDisputed  = "disputed"
	DebtStatusCancelled = "cancelled"
)

// Debt represents a tracked obligation of a debtor to pay the creditor.
// Amount is the current outstanding balance; OriginalAmount is snapshotted
// at creation and never changes.
type Debt struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	DebtorName         string          `json:"debtor_name" db:"debtor_name"`
	DebtorEmail        string          `json:"debtor_email" db:"debtor_email"`
	DebtorPhone        string          `json:"debtor_phone" db:"debtor_phone"`
	Description        string          `json:"description" db:"description"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	OriginalAmount     decimal.Decimal `json:"original_amount" db:"original_amount"`
	Currency           string          `json:"currency" db:"currency"`
	Status             string          `json:"status" db:"status"`
	DueDate            *time.Time      `json:"due_date,omitempty" db:"due_date"`
	DatePaid           *time.Time      `json:"date_paid,omitempty" db:"date_paid"`
	LastReminderSent   *time.Time      `json:"last_reminder_sent,omitempty" db:"last_reminder_sent"`
	ReminderCount      int             `json:"reminder_count" db:"reminder_count"`
	PaymentPlanOffered bool            `json:"payment_plan_offered" db:"payment_plan_offered"`
	CreditorID         uuid.UUID       `json:"creditor_id" db:"creditor_id"`
	Notes              string          `json:"notes" db:"notes"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the debt is active with a due date strictly
// before the current date.
func (d *Debt) IsOverdue(now time.Time) bool {
	if d.Status != DebtStatusActive || d.DueDate == nil {
		return false
	}
	return dateOf(now).After(dateOf(*d.DueDate))
}

// DaysOverdue returns the number of whole days past the due date, or 0
// when the debt is not overdue.
func (d *Debt) DaysOverdue(now time.Time) int {
	if !d.IsOverdue(now) {
		return 0
	}
	return int(dateOf(now).Sub(dateOf(*d.DueDate)).Hours() / 24)
}

// AmountPaid is the total settled so far.
func (d *Debt) AmountPaid() decimal.Decimal {
	return d.OriginalAmount.Sub(d.Amount)
}

func dateOf(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// DTOs for requests and responses

type CreateDebtRequest struct {
	DebtorName  string          `json:"debtor_name" validate:"required"`
	DebtorEmail string          `json:"debtor_email" validate:"omitempty,email"`
	DebtorPhone string          `json:"debtor_phone"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency"`
	DueDate     *time.Time      `json:"due_date"`
	Notes       string          `json:"notes"`
}

type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=cash bank_transfer mobile_money check other"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

type SendReminderRequest struct {
	TemplateID    *uuid.UUID `json:"template_id"`
	CustomSubject string     `json:"custom_subject"`
	CustomMessage string     `json:"custom_message"`
}

type ScheduleReminderRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
}

type DebtStats struct {
	TotalDebts         int             `json:"total_debts" db:"total_debts"`
	ActiveDebts        int             `json:"active_debts" db:"active_debts"`
	OverdueDebts       int             `json:"overdue_debts" db:"overdue_debts"`
	PaidDebts          int             `json:"paid_debts" db:"paid_debts"`
	TotalAmountOwed    decimal.Decimal `json:"total_amount_owed" db:"total_amount_owed"`
	TotalAmountPaid    decimal.Decimal `json:"total_amount_paid" db:"total_amount_paid"`
	TotalRemindersSent int             `json:"total_reminders_sent" db:"total_reminders_sent"`
}
