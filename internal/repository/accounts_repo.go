package repository

import (
	"context"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// AccountsRepository login identities for agents, admins and patients
type AccountsRepository interface {
	// CreateAgentAccount inserts the account and its agent profile together; IDs are filled in
	CreateAgentAccount(ctx context.Context, account *domain.Account, agent *domain.Agent) error

	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)

	// case-insensitive
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// GetOrCreatePatientAccount active account without a usable password, username = phone.
	// ErrDuplicate when the username already belongs to a staff or agent account.
	GetOrCreatePatientAccount(ctx context.Context, phone string) (*domain.Account, error)

	// UpsertStaffAccount bootstrap admin; always active and staff
	UpsertStaffAccount(ctx context.Context, username, passwordHash string) (*domain.Account, error)
}

// AgentsRepository agent profiles and workload
type AgentsRepository interface {
	GetAgent(ctx context.Context, agentID int64) (*domain.Agent, error)

	// ActivateAgent marks the agent's account active; returns false if it already was
	ActivateAgent(ctx context.Context, agentID int64) (bool, error)

	// ListActiveWorkload active agents with the number of their cases in openStatuses,
	// computed live from case rows
	ListActiveWorkload(ctx context.Context, openStatuses []domain.CaseStatus) ([]domain.AgentWorkload, error)
}
