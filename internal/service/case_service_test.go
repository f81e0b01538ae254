package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestCreateCase_TriagesSnapshotsAndAutoAssigns(t *testing.T) {
	repos := newTestRepos()
	pub := &recordingPublisher{}
	svc := NewCaseService(repos, pub, zap.NewNop())
	ctx := context.Background()

	patient := seedPatient(t, repos, "254700000001", "sw", domain.DeclarationSmallFee)
	_, agent := seedActiveAgent(t, repos, "jane", "Jane Wanjiru")

	c, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "severe headache", Source: SourceUSSD})
	require.NoError(t, err)

	assert.Equal(t, "High", c.Urgency)
	assert.Equal(t, "sw", c.LanguageCode)
	assert.Equal(t, domain.DeclarationSmallFee, c.PaymentDeclaration)
	assert.Equal(t, domain.StatusAssigned, c.Status)
	require.NotNil(t, c.AgentID)
	assert.Equal(t, agent.AgentID, *c.AgentID)
	assert.Equal(t, "Jane Wanjiru", c.AgentName)

	history, err := repos.Cases.ListHistory(ctx, c.CaseID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Case automatically assigned to agent Jane Wanjiru.", history[0].Description)
	assert.Equal(t, "Case created via USSD.", history[1].Description)

	assert.Equal(t, []events.Type{events.CaseCreated, events.CaseAssigned}, pub.types())
}

func TestCreateCase_NoAgentsLeavesNew(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	patient := seedPatient(t, repos, "254700000002", "", "")

	c, err := svc.CreateCase(context.Background(), CreateCaseRequest{PatientID: patient.PatientID, Symptom: "", Source: SourceWeb})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, c.Status)
	assert.Nil(t, c.AgentID)
	assert.Equal(t, "General Inquiry", c.Category)

	history, _ := repos.Cases.ListHistory(context.Background(), c.CaseID)
	require.Len(t, history, 1)
	assert.Equal(t, "Case created via web dashboard.", history[0].Description)
}

func TestCreateCase_PicksLeastLoadedAgent(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()
	patient := seedPatient(t, repos, "254700000003", "en", "standard")

	_, first := seedActiveAgent(t, repos, "first", "First Agent")
	_, second := seedActiveAgent(t, repos, "second", "Second Agent")

	c1, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "cough", Source: SourceUSSD})
	require.NoError(t, err)
	c2, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "rash", Source: SourceUSSD})
	require.NoError(t, err)

	require.NotNil(t, c1.AgentID)
	require.NotNil(t, c2.AgentID)
	assert.Equal(t, first.AgentID, *c1.AgentID)
	assert.Equal(t, second.AgentID, *c2.AgentID)
}

func TestClaimCase(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()
	patient := seedPatient(t, repos, "254700000004", "en", "standard")

	// created before any agent exists, so it stays unassigned
	c, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "fever", Source: SourceUSSD})
	require.NoError(t, err)

	janeAcc, jane := seedActiveAgent(t, repos, "jane", "Jane Wanjiru")
	bobAcc, _ := seedActiveAgent(t, repos, "bob", "Bob Otieno")

	claimed, err := svc.ClaimCase(ctx, c.CaseID, agentActor(janeAcc))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, claimed.Status)
	assert.Equal(t, jane.AgentID, *claimed.AgentID)

	history, _ := repos.Cases.ListHistory(ctx, c.CaseID)
	require.Len(t, history, 2)
	assert.Equal(t, "Case claimed by agent Jane Wanjiru.", history[0].Description)

	_, err = svc.ClaimCase(ctx, c.CaseID, agentActor(bobAcc))
	var conflict *AlreadyAssignedError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "Case already assigned to agent jane.", conflict.Error())

	after, _ := repos.Cases.GetCase(ctx, c.CaseID)
	assert.Equal(t, jane.AgentID, *after.AgentID)
	history, _ = repos.Cases.ListHistory(ctx, c.CaseID)
	assert.Len(t, history, 2)
}

func TestClaimCase_RequiresAgentProfile(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())

	_, err := svc.ClaimCase(context.Background(), 1, Actor{AccountID: 1, Username: "admin", IsStaff: true})
	assert.ErrorIs(t, err, ErrNoAgentProfile)
}

func TestClaimCase_ConcurrentOnlyOneWins(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()
	patient := seedPatient(t, repos, "254700000005", "en", "standard")
	c, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "fever", Source: SourceUSSD})
	require.NoError(t, err)

	var actors []Actor
	for _, name := range []string{"a1", "a2", "a3", "a4"} {
		acc, _ := seedActiveAgent(t, repos, name, name)
		actors = append(actors, agentActor(acc))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, actor := range actors {
		wg.Add(1)
		go func(a Actor) {
			defer wg.Done()
			if _, err := svc.ClaimCase(ctx, c.CaseID, a); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(actor)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUpdateCase(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()
	patient := seedPatient(t, repos, "254700000006", "en", "standard")
	c, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: "fever", Source: SourceUSSD})
	require.NoError(t, err)
	janeAcc, _ := seedActiveAgent(t, repos, "jane", "Jane Wanjiru")

	bad := "assigned_to_agent"
	_, err = svc.UpdateCase(ctx, c.CaseID, UpdateCaseRequest{Status: &bad}, agentActor(janeAcc))
	assert.ErrorIs(t, err, ErrValidation)

	unknown := "teleported"
	_, err = svc.UpdateCase(ctx, c.CaseID, UpdateCaseRequest{Status: &unknown}, agentActor(janeAcc))
	assert.ErrorIs(t, err, ErrValidation)

	resolved := "resolved"
	notes := "advised rest and fluids"
	updated, err := svc.UpdateCase(ctx, c.CaseID, UpdateCaseRequest{Status: &resolved, AgentNotes: &notes}, agentActor(janeAcc))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, updated.Status)
	assert.Equal(t, notes, updated.AgentNotes)
	assert.Equal(t, "fever", updated.SymptomInput)

	_, err = svc.UpdateCase(ctx, c.CaseID, UpdateCaseRequest{AgentNotes: &notes}, Actor{AccountID: 99, Username: "admin", IsStaff: true})
	require.NoError(t, err)

	history, _ := repos.Cases.ListHistory(ctx, c.CaseID)
	assert.Equal(t, "Case updated by agent Admin.", history[0].Description)
	assert.Equal(t, "Case updated by agent Jane Wanjiru.", history[1].Description)

	_, err = svc.UpdateCase(ctx, c.CaseID, UpdateCaseRequest{AgentNotes: &notes}, Actor{AccountID: 5, Username: "254700000006"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListAndGetCase_Visibility(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()

	alice := seedPatient(t, repos, "254711111111", "en", "standard")
	bob := seedPatient(t, repos, "254722222222", "en", "standard")
	ca, err := svc.CreateCase(ctx, CreateCaseRequest{PatientID: alice.PatientID, Symptom: "cough", Source: SourceUSSD})
	require.NoError(t, err)
	_, err = svc.CreateCase(ctx, CreateCaseRequest{PatientID: bob.PatientID, Symptom: "rash", Source: SourceUSSD})
	require.NoError(t, err)

	aliceActor := Actor{AccountID: 10, Username: alice.PhoneNumber}
	own, err := svc.ListCases(ctx, aliceActor)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, ca.CaseID, own[0].CaseID)

	all, err := svc.ListCases(ctx, Actor{AccountID: 1, Username: "admin", IsStaff: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.ListCases(ctx, Actor{AccountID: 3, Username: "stranger"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.GetCase(ctx, own[0].CaseID, Actor{AccountID: 11, Username: bob.PhoneNumber})
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := svc.CaseHistory(ctx, ca.CaseID, aliceActor)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCreateWebCase(t *testing.T) {
	repos := newTestRepos()
	svc := NewCaseService(repos, nil, zap.NewNop())
	ctx := context.Background()
	patient := seedPatient(t, repos, "254733333333", "sw", "cannot_pay")

	c, err := svc.CreateWebCase(ctx, Actor{AccountID: 1, Username: patient.PhoneNumber}, "  stomach cramps ")
	require.NoError(t, err)
	assert.Equal(t, "stomach cramps", c.SymptomInput)
	assert.Equal(t, "Digestive Issue", c.Category)
	assert.Equal(t, "cannot_pay", c.PaymentDeclaration)

	_, err = svc.CreateWebCase(ctx, Actor{AccountID: 1, Username: patient.PhoneNumber}, " ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateWebCase(ctx, Actor{AccountID: 2, Username: "agentjane"}, "fever")
	assert.ErrorIs(t, err, ErrForbidden)
}
