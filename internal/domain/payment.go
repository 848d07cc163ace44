package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash          = "cash"
	PaymentMethodBankTransfer  = "bank_transfer"
	PaymentMethodMobileMoney   = "mobile_money"
	PaymentMethodCheck         = "check"
	PaymentMethodOther         = "other"
)

// PaymentRecord is an immutable, append-only record of one payment event.
// Only the Verified flag may change after creation.
type PaymentRecord struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	DebtID          uuid.UUID       `json:"debt_id" db:"debt_id"`
	PaymentPlanID   *uuid.UUID      `json:"payment_plan_id,omitempty" db:"payment_plan_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	ReferenceNumber string          `json:"reference_number" db:"reference_number"`
	Notes           string          `json:"notes" db:"notes"`
	DatePaid        time.Time       `json:"date_paid" db:"date_paid"`
	Verified        bool            `json:"verified" db:"verified"`
}
