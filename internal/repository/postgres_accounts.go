package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fanuel08/Medicine-project/internal/domain"

	"github.com/lib/pq"
)

// PostgresAccountsRepository accounts + agents tables
type PostgresAccountsRepository struct {
	db *sql.DB
}

// NewPostgresAccountsRepository creates the repository
func NewPostgresAccountsRepository(db *sql.DB) *PostgresAccountsRepository {
	return &PostgresAccountsRepository{db: db}
}

var _ AccountsRepository = (*PostgresAccountsRepository)(nil)

const accountSelect = `
	SELECT a.account_id, a.username, COALESCE(a.email, ''), a.password_hash, a.is_active, a.is_staff,
	       ag.agent_id, a.created_at
	FROM accounts a
	LEFT JOIN agents ag ON ag.account_id = a.account_id`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var a domain.Account
	var agentID sql.NullInt64
	if err := row.Scan(&a.AccountID, &a.Username, &a.Email, &a.PasswordHash, &a.IsActive, &a.IsStaff,
		&agentID, &a.CreatedAt); err != nil {
		return nil, err
	}
	if agentID.Valid {
		id := agentID.Int64
		a.AgentID = &id
	}
	return &a, nil
}

func (r *PostgresAccountsRepository) CreateAgentAccount(ctx context.Context, account *domain.Account, agent *domain.Agent) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO accounts (username, email, password_hash, is_active, is_staff, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING account_id, created_at`,
			account.Username, account.Email, account.PasswordHash, account.IsActive, account.IsStaff,
		).Scan(&account.AccountID, &account.CreatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}

		var phone sql.NullString
		if agent.PhoneNumber != "" {
			phone = sql.NullString{String: agent.PhoneNumber, Valid: true}
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO agents (account_id, full_name, phone_number, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING agent_id, created_at`,
			account.AccountID, agent.FullName, phone,
		).Scan(&agent.AgentID, &agent.CreatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}

		agent.AccountID = account.AccountID
		agent.Username = account.Username
		agent.IsActive = account.IsActive
		account.AgentID = &agent.AgentID
		return nil
	})
}

func (r *PostgresAccountsRepository) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` WHERE a.account_id = $1`, accountID))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return a, nil
}

func (r *PostgresAccountsRepository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, accountSelect+` WHERE a.username = $1`, username))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return a, nil
}

func (r *PostgresAccountsRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	return exists, err
}

func (r *PostgresAccountsRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	return exists, err
}

func (r *PostgresAccountsRepository) GetOrCreatePatientAccount(ctx context.Context, phone string) (*domain.Account, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (username, email, password_hash, is_active, is_staff, created_at)
		VALUES ($1, '', '', TRUE, FALSE, NOW())
		ON CONFLICT (username) DO NOTHING`, phone)
	if err != nil {
		return nil, fmt.Errorf("create patient account: %w", err)
	}
	a, err := r.GetAccountByUsername(ctx, phone)
	if err != nil {
		return nil, err
	}
	if a.IsStaff || a.HasAgentProfile() {
		return nil, fmt.Errorf("patient account %s: %w", phone, ErrDuplicate)
	}
	return a, nil
}

func (r *PostgresAccountsRepository) UpsertStaffAccount(ctx context.Context, username, passwordHash string) (*domain.Account, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (username, email, password_hash, is_active, is_staff, created_at)
		VALUES ($1, '', $2, TRUE, TRUE, NOW())
		ON CONFLICT (username)
		DO UPDATE SET password_hash = EXCLUDED.password_hash, is_active = TRUE, is_staff = TRUE`,
		username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("upsert staff account: %w", err)
	}
	return r.GetAccountByUsername(ctx, username)
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
