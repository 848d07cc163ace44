package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FrequencyWeekly    = "weekly"
	FrequencyBiWeekly  = "bi_weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyCustom    = "custom"
)

const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"
	PlanStatusDefaulted = "defaulted"
)

// PaymentPlan is a schedule of fixed installments intended to retire a
// debt's balance. One plan per debt.
type PaymentPlan struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	DebtID            uuid.UUID       `json:"debt_id" db:"debt_id"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	Frequency         string          `json:"frequency" db:"frequency"`
	CustomDays        int             `json:"custom_days" db:"custom_days"`
	TotalInstallments int             `json:"total_installments" db:"total_installments"`
	PaidInstallments  int             `json:"paid_installments" db:"paid_installments"`
	StartDate         time.Time       `json:"start_date" db:"start_date"`
	NextDueDate       time.Time       `json:"next_due_date" db:"next_due_date"`
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// CompletionPercent returns how far through the plan the debtor is.
func (p *PaymentPlan) CompletionPercent() float64 {
	if p.TotalInstallments <= 0 {
		return 0
	}
	return float64(p.PaidInstallments) / float64(p.TotalInstallments) * 100
}

// RemainingAmount is the value of installments not yet paid.
func (p *PaymentPlan) RemainingAmount() decimal.Decimal {
	remaining := p.TotalInstallments - p.PaidInstallments
	if remaining < 0 {
		remaining = 0
	}
	return p.InstallmentAmount.Mul(decimal.NewFromInt(int64(remaining)))
}

// FrequencyOffsetDays maps a plan frequency to its installment interval.
// customDays applies only to the custom frequency; 0 falls back to 7.
func FrequencyOffsetDays(frequency string, customDays int) int {
	switch frequency {
	case FrequencyWeekly:
		return 7
	case FrequencyBiWeekly, "biweekly":
		return 14
	case FrequencyMonthly:
		return 30
	case FrequencyQuarterly:
		return 90
	case FrequencyCustom:
		if customDays > 0 {
			return customDays
		}
		return 7
	default:
		return 7
	}
}

type CreatePlanRequest struct {
	InstallmentAmount decimal.Decimal `json:"installment_amount" validate:"required"`
	Frequency         string          `json:"frequency" validate:"required,oneof=weekly bi_weekly biweekly monthly quarterly custom"`
	TotalInstallments int             `json:"total_installments" validate:"required,gte=1"`
	StartDate         time.Time       `json:"start_date" validate:"required"`
	CustomDays        int             `json:"custom_days" validate:"gte=0"`
}
