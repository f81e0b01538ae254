package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fanuel08/Medicine-project/internal/domain"

	"github.com/lib/pq"
)

// PostgresAgentsRepository agents table joined with accounts for the active flag
type PostgresAgentsRepository struct {
	db *sql.DB
}

// NewPostgresAgentsRepository creates the repository
func NewPostgresAgentsRepository(db *sql.DB) *PostgresAgentsRepository {
	return &PostgresAgentsRepository{db: db}
}

var _ AgentsRepository = (*PostgresAgentsRepository)(nil)

func (r *PostgresAgentsRepository) GetAgent(ctx context.Context, agentID int64) (*domain.Agent, error) {
	var a domain.Agent
	err := r.db.QueryRowContext(ctx, `
		SELECT ag.agent_id, ag.account_id, ac.username, ag.full_name, COALESCE(ag.phone_number, ''),
		       ac.is_active, ag.created_at
		FROM agents ag
		JOIN accounts ac ON ac.account_id = ag.account_id
		WHERE ag.agent_id = $1`, agentID,
	).Scan(&a.AgentID, &a.AccountID, &a.Username, &a.FullName, &a.PhoneNumber, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return &a, nil
}

func (r *PostgresAgentsRepository) ActivateAgent(ctx context.Context, agentID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET is_active = TRUE
		WHERE account_id = (SELECT account_id FROM agents WHERE agent_id = $1)
		  AND is_active = FALSE`, agentID)
	if err != nil {
		return false, fmt.Errorf("activate agent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// either already active or missing
		if _, err := r.GetAgent(ctx, agentID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *PostgresAgentsRepository) ListActiveWorkload(ctx context.Context, openStatuses []domain.CaseStatus) ([]domain.AgentWorkload, error) {
	statuses := make([]string, len(openStatuses))
	for i, s := range openStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ag.agent_id, ag.account_id, ac.username, ag.full_name, COALESCE(ag.phone_number, ''),
		       ac.is_active, ag.created_at,
		       COUNT(c.case_id) FILTER (WHERE c.status = ANY($1)) AS open_cases
		FROM agents ag
		JOIN accounts ac ON ac.account_id = ag.account_id
		LEFT JOIN cases c ON c.agent_id = ag.agent_id
		WHERE ac.is_active
		GROUP BY ag.agent_id, ac.account_id
		ORDER BY open_cases, ag.created_at`, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("list agent workload: %w", err)
	}
	defer rows.Close()

	var out []domain.AgentWorkload
	for rows.Next() {
		var w domain.AgentWorkload
		if err := rows.Scan(&w.Agent.AgentID, &w.Agent.AccountID, &w.Agent.Username, &w.Agent.FullName,
			&w.Agent.PhoneNumber, &w.Agent.IsActive, &w.Agent.CreatedAt, &w.OpenCases); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
