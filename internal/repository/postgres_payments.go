package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// PostgresPaymentsRepository payments table
type PostgresPaymentsRepository struct {
	db *sql.DB
}

// NewPostgresPaymentsRepository creates the repository
func NewPostgresPaymentsRepository(db *sql.DB) *PostgresPaymentsRepository {
	return &PostgresPaymentsRepository{db: db}
}

var _ PaymentsRepository = (*PostgresPaymentsRepository)(nil)

func (r *PostgresPaymentsRepository) ConfirmPayment(ctx context.Context, caseID int64, p *domain.Payment, history string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := setStatus(ctx, tx, caseID, domain.StatusPaid); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, caseID, history); err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		// gateway retries resend the same receipt
		err := tx.QueryRowContext(ctx, `
			INSERT INTO payments (case_id, amount, mpesa_receipt_number, transaction_date, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (mpesa_receipt_number) DO NOTHING
			RETURNING payment_id, created_at`,
			caseID, p.Amount, p.MpesaReceiptNumber, p.TransactionDate,
		).Scan(&p.PaymentID, &p.CreatedAt)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("insert payment: %w", err)
		}
		p.CaseID = caseID
		return nil
	})
}

func (r *PostgresPaymentsRepository) ListPayments(ctx context.Context, patientID *int64) ([]domain.Payment, error) {
	query := `
		SELECT pm.payment_id, pm.case_id, pm.amount, pm.mpesa_receipt_number, pm.transaction_date, pm.created_at
		FROM payments pm
		JOIN cases c ON c.case_id = pm.case_id`
	var args []any
	if patientID != nil {
		query += ` WHERE c.patient_id = $1`
		args = append(args, *patientID)
	}
	query += ` ORDER BY pm.transaction_date DESC, pm.payment_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.PaymentID, &p.CaseID, &p.Amount, &p.MpesaReceiptNumber, &p.TransactionDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
