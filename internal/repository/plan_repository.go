package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type planRepository struct {
	db *sqlx.DB
}

func NewPaymentPlanRepository(db *sqlx.DB) PaymentPlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	query := `
		INSERT INTO payment_plans (id, debt_id, installment_amount, frequency,
			custom_days, total_installments, paid_installments, start_date,
			next_due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		plan.ID,
		plan.DebtID,
		plan.InstallmentAmount,
		plan.Frequency,
		plan.CustomDays,
		plan.TotalInstallments,
		plan.PaidInstallments,
		plan.StartDate,
		plan.NextDueDate,
		plan.Status,
		plan.CreatedAt,
	)

	return err
}

func (r *planRepository) GetByDebtID(ctx context.Context, debtID uuid.UUID) (*domain.PaymentPlan, error) {
	query := `
		SELECT id, debt_id, installment_amount, frequency, custom_days,
			total_installments, paid_installments, start_date, next_due_date,
			status, created_at
		FROM payment_plans
		WHERE debt_id = $1
	`

	var plan domain.PaymentPlan
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &plan, query, debtID); err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	query := `
		UPDATE payment_plans
		SET paid_installments = $2, next_due_date = $3, status = $4
		WHERE id = $1
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		plan.ID,
		plan.PaidInstallments,
		plan.NextDueDate,
		plan.Status,
	)

	return err
}
