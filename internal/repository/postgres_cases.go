package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// PostgresCasesRepository cases + case_history tables
type PostgresCasesRepository struct {
	db *sql.DB
}

// NewPostgresCasesRepository creates the repository
func NewPostgresCasesRepository(db *sql.DB) *PostgresCasesRepository {
	return &PostgresCasesRepository{db: db}
}

var _ CasesRepository = (*PostgresCasesRepository)(nil)

const caseSelect = `
	SELECT c.case_id, c.patient_id, p.phone_number, c.agent_id,
	       COALESCE(ag.full_name, ''), COALESCE(ac.username, ''),
	       c.symptom_input, COALESCE(c.language_code, ''), COALESCE(c.payment_declaration, ''),
	       c.status, COALESCE(c.agent_notes, ''), COALESCE(c.checkout_request_id, ''),
	       COALESCE(c.ai_urgency, ''), COALESCE(c.ai_category, ''), COALESCE(c.ai_summary, ''),
	       c.created_at, c.updated_at
	FROM cases c
	JOIN patients p ON p.patient_id = c.patient_id
	LEFT JOIN agents ag ON ag.agent_id = c.agent_id
	LEFT JOIN accounts ac ON ac.account_id = ag.account_id`

func scanCase(row interface{ Scan(...any) error }) (*domain.Case, error) {
	var c domain.Case
	var agentID sql.NullInt64
	var status string
	if err := row.Scan(&c.CaseID, &c.PatientID, &c.PatientPhone, &agentID,
		&c.AgentName, &c.AgentUsername,
		&c.SymptomInput, &c.LanguageCode, &c.PaymentDeclaration,
		&status, &c.AgentNotes, &c.CheckoutRequestID,
		&c.Urgency, &c.Category, &c.Summary,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.CaseStatus(status)
	if agentID.Valid {
		id := agentID.Int64
		c.AgentID = &id
	}
	return &c, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func insertHistory(ctx context.Context, tx *sql.Tx, caseID int64, description string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO case_history (case_id, timestamp, description) VALUES ($1, NOW(), $2)`,
		caseID, description)
	if err != nil {
		return fmt.Errorf("insert case history: %w", err)
	}
	return nil
}

func (r *PostgresCasesRepository) CreateCase(ctx context.Context, c *domain.Case, history string) error {
	if c.Status == "" {
		c.Status = domain.StatusNew
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO cases (patient_id, symptom_input, language_code, payment_declaration, status,
			                   ai_urgency, ai_category, ai_summary, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING case_id, created_at, updated_at`,
			c.PatientID, c.SymptomInput, nullIfEmpty(c.LanguageCode), nullIfEmpty(c.PaymentDeclaration),
			string(c.Status), c.Urgency, c.Category, c.Summary,
		).Scan(&c.CaseID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		return insertHistory(ctx, tx, c.CaseID, history)
	})
}

func (r *PostgresCasesRepository) GetCase(ctx context.Context, caseID int64) (*domain.Case, error) {
	c, err := scanCase(r.db.QueryRowContext(ctx, caseSelect+` WHERE c.case_id = $1`, caseID))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return c, nil
}

func (r *PostgresCasesRepository) GetCaseByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Case, error) {
	if checkoutRequestID == "" {
		return nil, ErrNotFound
	}
	c, err := scanCase(r.db.QueryRowContext(ctx, caseSelect+` WHERE c.checkout_request_id = $1`, checkoutRequestID))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return c, nil
}

func (r *PostgresCasesRepository) ListCases(ctx context.Context, filter CaseFilter) ([]*domain.Case, error) {
	query := caseSelect
	var args []any
	if filter.PatientID != nil {
		query += ` WHERE c.patient_id = $1`
		args = append(args, *filter.PatientID)
	}
	query += ` ORDER BY c.created_at DESC, c.case_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := []*domain.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AssignIfUnassigned is a compare-and-set on agent_id; concurrent claimers serialize on the row lock
func (r *PostgresCasesRepository) AssignIfUnassigned(ctx context.Context, caseID, agentID int64, history string) (bool, error) {
	assigned := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE cases SET agent_id = $2, status = $3, updated_at = NOW()
			WHERE case_id = $1 AND agent_id IS NULL`,
			caseID, agentID, string(domain.StatusAssigned))
		if err != nil {
			return fmt.Errorf("assign case: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		assigned = true
		return insertHistory(ctx, tx, caseID, history)
	})
	if err != nil {
		return false, err
	}
	return assigned, nil
}

func (r *PostgresCasesRepository) UpdateCase(ctx context.Context, caseID int64, update CaseUpdate, history string) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{caseID}
	if update.SymptomInput != nil {
		args = append(args, *update.SymptomInput)
		sets = append(sets, fmt.Sprintf("symptom_input = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, string(*update.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.AgentNotes != nil {
		args = append(args, *update.AgentNotes)
		sets = append(sets, fmt.Sprintf("agent_notes = $%d", len(args)))
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE cases SET `+strings.Join(sets, ", ")+` WHERE case_id = $1`, args...)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
		return insertHistory(ctx, tx, caseID, history)
	})
}

func (r *PostgresCasesRepository) SetCheckoutRequestID(ctx context.Context, caseID int64, checkoutRequestID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET checkout_request_id = $2, updated_at = NOW() WHERE case_id = $1`,
		caseID, checkoutRequestID)
	if err != nil {
		return fmt.Errorf("set checkout request id: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCasesRepository) TransitionStatus(ctx context.Context, caseID int64, status domain.CaseStatus, history string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := setStatus(ctx, tx, caseID, status); err != nil {
			return err
		}
		return insertHistory(ctx, tx, caseID, history)
	})
}

func setStatus(ctx context.Context, tx *sql.Tx, caseID int64, status domain.CaseStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE cases SET status = $2, updated_at = NOW() WHERE case_id = $1`,
		caseID, string(status))
	if err != nil {
		return fmt.Errorf("set case status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCasesRepository) AppendHistory(ctx context.Context, caseID int64, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO case_history (case_id, timestamp, description) VALUES ($1, NOW(), $2)`,
		caseID, description)
	if err != nil {
		return fmt.Errorf("append case history: %w", err)
	}
	return nil
}

func (r *PostgresCasesRepository) ListHistory(ctx context.Context, caseID int64) ([]domain.CaseHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT history_id, case_id, timestamp, description
		FROM case_history
		WHERE case_id = $1
		ORDER BY timestamp DESC, history_id DESC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list case history: %w", err)
	}
	defer rows.Close()

	out := []domain.CaseHistory{}
	for rows.Next() {
		var h domain.CaseHistory
		if err := rows.Scan(&h.HistoryID, &h.CaseID, &h.Timestamp, &h.Description); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
