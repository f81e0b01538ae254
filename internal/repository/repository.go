package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound returned by every repository when the row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate returned when a unique constraint rejects the write
var ErrDuplicate = errors.New("already exists")

// Repositories groups every store the services need
type Repositories struct {
	Patients  PatientsRepository
	Accounts  AccountsRepository
	Agents    AgentsRepository
	Cases     CasesRepository
	Payments  PaymentsRepository
	MenuTexts MenuTextsRepository
}

// NewPostgresRepositories wires the Postgres implementations over one pool
func NewPostgresRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Patients:  NewPostgresPatientsRepository(db),
		Accounts:  NewPostgresAccountsRepository(db),
		Agents:    NewPostgresAgentsRepository(db),
		Cases:     NewPostgresCasesRepository(db),
		Payments:  NewPostgresPaymentsRepository(db),
		MenuTexts: NewPostgresMenuTextsRepository(db),
	}
}

// NewMemoryRepositories wires one shared in-memory store (DB-less dev mode and tests)
func NewMemoryRepositories() *Repositories {
	m := NewMemoryStore()
	return &Repositories{
		Patients:  m,
		Accounts:  m,
		Agents:    m,
		Cases:     m,
		Payments:  m,
		MenuTexts: m,
	}
}

// withTx runs fn in a transaction, committing only when fn returns nil
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func notFoundIfNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
