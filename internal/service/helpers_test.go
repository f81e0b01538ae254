package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/repository"
)

func newTestRepos() *repository.Repositories {
	return repository.NewMemoryRepositories()
}

func seedPatient(t *testing.T, repos *repository.Repositories, phone, lang, decl string) *domain.Patient {
	t.Helper()
	ctx := context.Background()
	p, err := repos.Patients.UpsertPatientByPhone(ctx, phone)
	require.NoError(t, err)
	if lang != "" {
		require.NoError(t, repos.Patients.SetPatientLanguage(ctx, p.PatientID, lang))
	}
	if decl != "" {
		require.NoError(t, repos.Patients.SetPatientPaymentDeclaration(ctx, p.PatientID, decl))
	}
	p, err = repos.Patients.GetPatient(ctx, p.PatientID)
	require.NoError(t, err)
	return p
}

func seedActiveAgent(t *testing.T, repos *repository.Repositories, username, fullName string) (*domain.Account, *domain.Agent) {
	t.Helper()
	acc := &domain.Account{Username: username, Email: username + "@afyalink.test", IsActive: true}
	ag := &domain.Agent{FullName: fullName, PhoneNumber: "0700000000"}
	require.NoError(t, repos.Accounts.CreateAgentAccount(context.Background(), acc, ag))
	return acc, ag
}

func agentActor(acc *domain.Account) Actor {
	return Actor{AccountID: acc.AccountID, Username: acc.Username, IsStaff: acc.IsStaff, AgentID: acc.AgentID}
}
