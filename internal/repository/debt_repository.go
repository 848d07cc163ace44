package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jkarimi/iou-engine/internal/domain"
)

type debtRepository struct {
	db *sqlx.DB
}

func NewDebtRepository(db *sqlx.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) Create(ctx context.Context, debt *domain.Debt) error {
	query := `
		INSERT INTO debts (id, debtor_name, debtor_email, debtor_phone, description,
			amount, original_amount, currency, status, due_date, date_paid,
			last_reminder_sent, reminder_count, payment_plan_offered, creditor_id,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		debt.ID,
		debt.DebtorName,
		debt.DebtorEmail,
		debt.DebtorPhone,
		debt.Description,
		debt.Amount,
		debt.OriginalAmount,
		debt.Currency,
		debt.Status,
		debt.DueDate,
		debt.DatePaid,
		debt.LastReminderSent,
		debt.ReminderCount,
		debt.PaymentPlanOffered,
		debt.CreditorID,
		debt.Notes,
		debt.CreatedAt,
		debt.UpdatedAt,
	)

	return err
}

func (r *debtRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	query := `
		SELECT id, debtor_name, debtor_email, debtor_phone, description,
			amount, original_amount, currency, status, due_date, date_paid,
			last_reminder_sent, reminder_count, payment_plan_offered, creditor_id,
			notes, created_at, updated_at
		FROM debts
		WHERE id = $1
	`

	var debt domain.Debt
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &debt, query, id); err != nil {
		return nil, err
	}

	return &debt, nil
}

func (r *debtRepository) Update(ctx context.Context, debt *domain.Debt) error {
	query := `
		UPDATE debts
		SET amount = $2, status = $3, due_date = $4, date_paid = $5,
			last_reminder_sent = $6, reminder_count = $7, payment_plan_offered = $8,
			notes = $9, updated_at = $10
		WHERE id = $1
	`

	_, err := extFrom(ctx, r.db).ExecContext(ctx, query,
		debt.ID,
		debt.Amount,
		debt.Status,
		debt.DueDate,
		debt.DatePaid,
		debt.LastReminderSent,
		debt.ReminderCount,
		debt.PaymentPlanOffered,
		debt.Notes,
		time.Now(),
	)

	return err
}

func (r *debtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := extFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id)
	return err
}

func (r *debtRepository) ListByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*domain.Debt, error) {
	query := `
		SELECT id, debtor_name, debtor_email, debtor_phone, description,
			amount, original_amount, currency, status, due_date, date_paid,
			last_reminder_sent, reminder_count, payment_plan_offered, creditor_id,
			notes, created_at, updated_at
		FROM debts
		WHERE creditor_id = $1
		ORDER BY created_at DESC
	`

	var debts []*domain.Debt
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &debts, query, creditorID); err != nil {
		return nil, err
	}

	return debts, nil
}

func (r *debtRepository) ListOverdueActive(ctx context.Context, asOf time.Time) ([]*domain.Debt, error) {
	query := `
		SELECT id, debtor_name, debtor_email, debtor_phone, description,
			amount, original_amount, currency, status, due_date, date_paid,
			last_reminder_sent, reminder_count, payment_plan_offered, creditor_id,
			notes, created_at, updated_at
		FROM debts
		WHERE status = 'active' AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date
	`

	var debts []*domain.Debt
	if err := sqlx.SelectContext(ctx, extFrom(ctx, r.db), &debts, query, asOf); err != nil {
		return nil, err
	}

	return debts, nil
}

func (r *debtRepository) Stats(ctx context.Context, creditorID uuid.UUID, asOf time.Time) (*domain.DebtStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_debts,
			COUNT(*) FILTER (WHERE status = 'active') AS active_debts,
			COUNT(*) FILTER (WHERE status = 'active' AND due_date IS NOT NULL AND due_date < $2) AS overdue_debts,
			COUNT(*) FILTER (WHERE status = 'paid') AS paid_debts,
			COALESCE(SUM(amount) FILTER (WHERE status = 'active'), 0) AS total_amount_owed,
			COALESCE(SUM(original_amount - amount), 0) AS total_amount_paid,
			COALESCE(SUM(reminder_count), 0) AS total_reminders_sent
		FROM debts
		WHERE creditor_id = $1
	`

	var stats domain.DebtStats
	if err := sqlx.GetContext(ctx, extFrom(ctx, r.db), &stats, query, creditorID, asOf); err != nil {
		return nil, err
	}

	return &stats, nil
}
