package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (id, debt_id, payment_plan_id, amount,
			payment_method, reference_number, notes, date_paid, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.DebtID,
		payment.PaymentPlanID,
		payment.Amount,
		payment.PaymentMethod,
		payment.ReferenceNumber,
		payment.Notes,
		payment.DatePaid,
		payment.Verified,
	)

	return err
}

func (r *paymentRepository) ListByDebtID(ctx context.Context, debtID uuid.UUID) ([]*domain.PaymentRecord, error) {
	query := `
		SELECT id, debt_id, payment_plan_id, amount, payment_method,
			reference_number, notes, date_paid, verified
		FROM payment_records
		WHERE debt_id = $1
		ORDER BY date_paid DESC
	`

	var payments []*domain.PaymentRecord
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &payments, query, debtID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	query := `
		SELECT id, debt_id, payment_plan_id, amount, payment_method,
			reference_number, notes, date_paid, verified
		FROM payment_records
		WHERE id = $1
	`

	var payment domain.PaymentRecord
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}
