package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/internal/repository"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
	"github.com/jkarimi/iou-engine/pkg/logger"
)

const (
	defaultCurrency = "KES"
	statsCacheTTL   = 5 * time.Minute
)

// DebtService implements the debt ledger: creation, payment application,
// payment plans and reminders. Balance mutations run inside one
// transaction; notifications are queued only after the commit.
type DebtService struct {
	debts         repository.DebtRepository
	plans         repository.PaymentPlanRepository
	payments      repository.PaymentRepository
	notifications repository.NotificationRepository
	tx            repository.Transactor
	tasks         *notify.Tasks
	cache         *redis.Client
	now           func() time.Time
}

func NewDebtService(
	debts repository.DebtRepository,
	plans repository.PaymentPlanRepository,
	payments repository.PaymentRepository,
	notifications repository.NotificationRepository,
	tx repository.Transactor,
	tasks *notify.Tasks,
	cache *redis.Client,
) *DebtService {
	return &DebtService{
		debts:         debts,
		plans:         plans,
		payments:      payments,
		notifications: notifications,
		tx:            tx,
		tasks:         tasks,
		cache:         cache,
		now:           time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *DebtService) WithClock(now func() time.Time) *DebtService {
	s.now = now
	return s
}

// CreateDebt records a new debt owned by the creditor. The original
// amount is snapshotted from the opening balance and never changes.
func (s *DebtService) CreateDebt(ctx context.Context, creditorID uuid.UUID, req *domain.CreateDebtRequest) (*domain.Debt, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.WrapInvalidPaymentAmount(req.Amount.String())
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.now()
	debt := &domain.Debt{
		ID:             uuid.New(),
		DebtorName:     req.DebtorName,
		DebtorEmail:    req.DebtorEmail,
		DebtorPhone:    req.DebtorPhone,
		Description:    req.Description,
		Amount:         req.Amount,
		OriginalAmount: req.Amount,
		Currency:       currency,
		Status:         domain.DebtStatusActive,
		DueDate:        req.DueDate,
		CreditorID:     creditorID,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	if err := s.tasks.EnqueueDebtCreated(ctx, debt.ID); err != nil {
		logger.Warn("enqueueing debt created notification", "debt_id", debt.ID, "error", err)
	}
	s.invalidateStats(ctx, creditorID)

	return debt, nil
}

// GetDebt loads a debt owned by the creditor.
func (s *DebtService) GetDebt(ctx context.Context, creditorID, debtID uuid.UUID) (*domain.Debt, error) {
	return s.loadOwnedDebt(ctx, creditorID, debtID)
}

// ListDebts retrieves every debt owned by the creditor.
func (s *DebtService) ListDebts(ctx context.Context, creditorID uuid.UUID) ([]*domain.Debt, error) {
	debts, err := s.debts.ListByCreditor(ctx, creditorID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return debts, nil
}

// DeleteDebt removes a debt and everything hanging off it.
func (s *DebtService) DeleteDebt(ctx context.Context, creditorID, debtID uuid.UUID) error {
	if _, err := s.loadOwnedDebt(ctx, creditorID, debtID); err != nil {
		return err
	}
	if err := s.debts.Delete(ctx, debtID); err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	s.invalidateStats(ctx, creditorID)
	return nil
}

// ListPayments returns the debt's payment history, newest first.
func (s *DebtService) ListPayments(ctx context.Context, creditorID, debtID uuid.UUID) ([]*domain.PaymentRecord, error) {
	if _, err := s.loadOwnedDebt(ctx, creditorID, debtID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByDebtID(ctx, debtID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return payments, nil
}

// GetPaymentPlan returns the debt's plan, or nil when none exists.
func (s *DebtService) GetPaymentPlan(ctx context.Context, creditorID, debtID uuid.UUID) (*domain.PaymentPlan, error) {
	if _, err := s.loadOwnedDebt(ctx, creditorID, debtID); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByDebtID(ctx, debtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.WrapDatabaseError(err)
	}
	return plan, nil
}

// RecordPayment applies a partial or full payment against the debt.
//
// The balance decrement, payment record and plan progress commit as one
// unit. A payment larger than the outstanding balance is rejected; a
// payment that brings the balance to zero settles the debt. The
// confirmation notification is queued after the commit, so a queue
// failure never loses the payment.
func (s *DebtService) RecordPayment(ctx context.Context, creditorID, debtID uuid.UUID, req *domain.RecordPaymentRequest) (*domain.PaymentRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.WrapInvalidPaymentAmount(req.Amount.String())
	}

	var payment *domain.PaymentRecord

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		debt, err := s.loadOwnedDebt(ctx, creditorID, debtID)
		if err != nil {
			return err
		}
		if debt.Status == domain.DebtStatusPaid {
			return apperrors.NewBusinessError(apperrors.ErrCodeDebtAlreadyPaid,
				"Debt is already fully paid", apperrors.ErrDebtAlreadyPaid)
		}
		if req.Amount.GreaterThan(debt.Amount) {
			return apperrors.WrapPaymentExceedsBalance(req.Amount.StringFixed(2), debt.Amount.StringFixed(2))
		}

		now := s.now()
		payment = &domain.PaymentRecord{
			ID:              uuid.New(),
			DebtID:          debt.ID,
			Amount:          req.Amount,
			PaymentMethod:   req.PaymentMethod,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
			DatePaid:        now,
		}

		if err := s.advancePlan(ctx, debt, payment); err != nil {
			return err
		}

		if err := s.payments.Create(ctx, payment); err != nil {
			return apperrors.WrapDatabaseError(err)
		}

		debt.Amount = debt.Amount.Sub(req.Amount)
		if debt.Amount.LessThanOrEqual(decimal.Zero) {
			debt.Amount = decimal.Zero
			debt.Status = domain.DebtStatusPaid
			debt.DatePaid = &now
		}
		debt.UpdatedAt = now

		if err := s.debts.Update(ctx, debt); err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.tasks.EnqueuePaymentConfirmation(ctx, debtID, payment.ID); err != nil {
		logger.Warn("enqueueing payment confirmation", "debt_id", debtID, "error", err)
	}
	s.invalidateStats(ctx, creditorID)

	return payment, nil
}

// advancePlan counts the payment toward an active plan: the installment
// tally moves forward and the next due date shifts by one interval. The
// plan completes when every installment is paid.
func (s *DebtService) advancePlan(ctx context.Context, debt *domain.Debt, payment *domain.PaymentRecord) error {
	plan, err := s.plans.GetByDebtID(ctx, debt.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return apperrors.WrapDatabaseError(err)
	}
	if plan.Status != domain.PlanStatusActive {
		return nil
	}

	planID := plan.ID
	payment.PaymentPlanID = &planID

	plan.PaidInstallments++
	plan.NextDueDate = plan.NextDueDate.AddDate(0, 0, domain.FrequencyOffsetDays(plan.Frequency, plan.CustomDays))
	if plan.PaidInstallments >= plan.TotalInstallments {
		plan.Status = domain.PlanStatusCompleted
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	return nil
}

// CreatePaymentPlan sets up an installment schedule for the debt. The
// plan must cover at least the current outstanding balance, and a debt
// carries at most one plan.
func (s *DebtService) CreatePaymentPlan(ctx context.Context, creditorID, debtID uuid.UUID, req *domain.CreatePlanRequest) (*domain.PaymentPlan, error) {
	if !req.InstallmentAmount.IsPositive() {
		return nil, apperrors.WrapInvalidPaymentAmount(req.InstallmentAmount.String())
	}

	var plan *domain.PaymentPlan

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		debt, err := s.loadOwnedDebt(ctx, creditorID, debtID)
		if err != nil {
			return err
		}
		if debt.Status != domain.DebtStatusActive {
			return apperrors.NewBusinessError(apperrors.ErrCodeDebtAlreadyPaid,
				"Payment plans require an active debt", apperrors.ErrDebtAlreadyPaid)
		}

		if _, err := s.plans.GetByDebtID(ctx, debtID); err == nil {
			return apperrors.WrapPlanAlreadyExists(debtID.String())
		} else if !errors.Is(err, sql.ErrNoRows) {
			return apperrors.WrapDatabaseError(err)
		}

		planTotal := req.InstallmentAmount.Mul(decimal.NewFromInt(int64(req.TotalInstallments)))
		if planTotal.LessThan(debt.Amount) {
			return apperrors.WrapPlanUnderfunded(planTotal.StringFixed(2), debt.Amount.StringFixed(2))
		}

		frequency := req.Frequency
		if frequency == "biweekly" {
			frequency = domain.FrequencyBiWeekly
		}

		now := s.now()
		plan = &domain.PaymentPlan{
			ID:                uuid.New(),
			DebtID:            debtID,
			InstallmentAmount: req.InstallmentAmount,
			Frequency:         frequency,
			CustomDays:        req.CustomDays,
			TotalInstallments: req.TotalInstallments,
			StartDate:         req.StartDate,
			NextDueDate:       req.StartDate.AddDate(0, 0, domain.FrequencyOffsetDays(frequency, req.CustomDays)),
			Status:            domain.PlanStatusActive,
			CreatedAt:         now,
		}

		if err := s.plans.Create(ctx, plan); err != nil {
			return apperrors.WrapDatabaseError(err)
		}

		debt.PaymentPlanOffered = true
		debt.UpdatedAt = now
		if err := s.debts.Update(ctx, debt); err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// MarkPaid settles the debt in full without recording a payment event,
// for balances cleared outside the system.
func (s *DebtService) MarkPaid(ctx context.Context, creditorID, debtID uuid.UUID) (*domain.Debt, error) {
	var debt *domain.Debt

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		debt, err = s.loadOwnedDebt(ctx, creditorID, debtID)
		if err != nil {
			return err
		}
		if debt.Status == domain.DebtStatusPaid {
			return apperrors.NewBusinessError(apperrors.ErrCodeDebtAlreadyPaid,
				"Debt is already fully paid", apperrors.ErrDebtAlreadyPaid)
		}

		now := s.now()
		debt.Amount = decimal.Zero
		debt.Status = domain.DebtStatusPaid
		debt.DatePaid = &now
		debt.UpdatedAt = now

		if err := s.debts.Update(ctx, debt); err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, creditorID)
	return debt, nil
}

// SendReminder queues a reminder to the debtor. The reminder counter and
// timestamp advance immediately so tone-window selection sees the new
// count on the next reminder.
func (s *DebtService) SendReminder(ctx context.Context, creditorID, debtID uuid.UUID, req *domain.SendReminderRequest) (*domain.Debt, error) {
	debt, err := s.loadOwnedDebt(ctx, creditorID, debtID)
	if err != nil {
		return nil, err
	}
	if debt.Status == domain.DebtStatusPaid || debt.Status == domain.DebtStatusCancelled {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeDebtAlreadyPaid,
			"Reminders require an unsettled debt", apperrors.ErrDebtAlreadyPaid)
	}

	now := s.now()
	debt.ReminderCount++
	debt.LastReminderSent = &now
	debt.UpdatedAt = now

	if err := s.debts.Update(ctx, debt); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	if err := s.tasks.EnqueueDebtReminder(ctx, debt.ID, req.TemplateID, req.CustomSubject, req.CustomMessage); err != nil {
		return nil, err
	}

	return debt, nil
}

// ScheduleReminder defers a reminder to a future time. The sweep picks
// the row up once scheduled_for passes and queues the dispatch.
func (s *DebtService) ScheduleReminder(ctx context.Context, creditorID, debtID uuid.UUID, req *domain.ScheduleReminderRequest) (*domain.ScheduledNotification, error) {
	debt, err := s.loadOwnedDebt(ctx, creditorID, debtID)
	if err != nil {
		return nil, err
	}
	if debt.Status == domain.DebtStatusPaid || debt.Status == domain.DebtStatusCancelled {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeDebtAlreadyPaid,
			"Reminders require an unsettled debt", apperrors.ErrDebtAlreadyPaid)
	}
	if !req.ScheduledFor.After(s.now()) {
		return nil, apperrors.WrapScheduleInPast(req.ScheduledFor.Format(time.RFC3339))
	}

	sched := &domain.ScheduledNotification{
		ID:               uuid.New(),
		UserID:           creditorID,
		DebtID:           &debt.ID,
		NotificationType: domain.NotificationTypeDebtReminder,
		ScheduledFor:     req.ScheduledFor,
		CreatedAt:        s.now(),
	}

	if err := s.notifications.CreateScheduled(ctx, sched); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return sched, nil
}

// Statistics aggregates the creditor's portfolio, cached briefly since
// the dashboard polls it.
func (s *DebtService) Statistics(ctx context.Context, creditorID uuid.UUID) (*domain.DebtStats, error) {
	key := statsCacheKey(creditorID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var stats domain.DebtStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Warn("reading stats cache", "creditor_id", creditorID, "error", err)
		}
	}

	stats, err := s.debts.Stats(ctx, creditorID, s.now())
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, raw, statsCacheTTL).Err(); err != nil {
				logger.Warn("writing stats cache", "creditor_id", creditorID, "error", err)
			}
		}
	}

	return stats, nil
}

func (s *DebtService) loadOwnedDebt(ctx context.Context, creditorID, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.debts.GetByID(ctx, debtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapDebtNotFound(debtID.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}
	if debt.CreditorID != creditorID {
		return nil, apperrors.WrapNotCreditor(debtID.String())
	}
	return debt, nil
}

func (s *DebtService) invalidateStats(ctx context.Context, creditorID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey(creditorID)).Err(); err != nil {
		logger.Warn("invalidating stats cache", "creditor_id", creditorID, "error", err)
	}
}

func statsCacheKey(creditorID uuid.UUID) string {
	return "iou:stats:" + creditorID.String()
}
