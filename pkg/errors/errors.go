package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrDebtNotFound          = errors.New("debt not found")
	ErrTemplateNotFound      = errors.New("template not found")
	ErrInvalidPaymentAmount  = errors.New("invalid payment amount")
	ErrPaymentExceedsBalance = errors.New("payment amount cannot exceed remaining debt")
	ErrDebtAlreadyPaid       = errors.New("debt is already paid")
	ErrPlanAlreadyExists     = errors.New("payment plan already exists for this debt")
	ErrPlanUnderfunded       = errors.New("total payment plan amount must be at least equal to the debt amount")
	ErrNoContent             = errors.New("no notification content available")
	ErrNotCreditor           = errors.New("only the debt's creditor may perform this action")
	ErrScheduleInPast        = errors.New("scheduled time must be in the future")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeDebtNotFound          = "DEBT_NOT_FOUND"
	ErrCodeTemplateNotFound      = "TEMPLATE_NOT_FOUND"
	ErrCodeInvalidPaymentAmount  = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentExceedsBalance = "PAYMENT_EXCEEDS_BALANCE"
	ErrCodeDebtAlreadyPaid       = "DEBT_ALREADY_PAID"
	ErrCodePlanAlreadyExists     = "PLAN_ALREADY_EXISTS"
	ErrCodePlanUnderfunded       = "PLAN_UNDERFUNDED"
	ErrCodeNoContent             = "NO_CONTENT_AVAILABLE"
	ErrCodeScheduleInPast        = "SCHEDULE_IN_PAST"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapDebtNotFound(debtID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDebtNotFound,
		fmt.Sprintf("Debt with ID %s not found", debtID),
		ErrDebtNotFound,
	)
}

func WrapTemplateNotFound(name string) *BusinessError {
	return NewBusinessError(
		ErrCodeTemplateNotFound,
		fmt.Sprintf("Template %s not found", name),
		ErrTemplateNotFound,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapPaymentExceedsBalance(amount, outstanding string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentExceedsBalance,
		fmt.Sprintf("Payment of %s exceeds outstanding balance %s", amount, outstanding),
		ErrPaymentExceedsBalance,
	)
}

func WrapPlanAlreadyExists(debtID string) *BusinessError {
	return NewBusinessError(
		ErrCodePlanAlreadyExists,
		fmt.Sprintf("Debt %s already has a payment plan", debtID),
		ErrPlanAlreadyExists,
	)
}

func WrapPlanUnderfunded(planTotal, outstanding string) *BusinessError {
	return NewBusinessError(
		ErrCodePlanUnderfunded,
		fmt.Sprintf("Plan total %s does not cover outstanding balance %s", planTotal, outstanding),
		ErrPlanUnderfunded,
	)
}

func WrapNoContent(notificationType, channel string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoContent,
		fmt.Sprintf("No content available for %s via %s", notificationType, channel),
		ErrNoContent,
	)
}

func WrapScheduleInPast(scheduledFor string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleInPast,
		fmt.Sprintf("Scheduled time %s is not in the future", scheduledFor),
		ErrScheduleInPast,
	)
}

func WrapNotCreditor(debtID string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("Only the creditor of debt %s may perform this action", debtID),
		ErrNotCreditor,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
