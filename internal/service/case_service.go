package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/assign"
	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/events"
	"github.com/fanuel08/Medicine-project/internal/repository"
	"github.com/fanuel08/Medicine-project/internal/triage"

	"go.uber.org/zap"
)

// CaseSource where a case was reported from
type CaseSource string

const (
	SourceUSSD CaseSource = "ussd"
	SourceWeb  CaseSource = "web"
)

func (s CaseSource) historyEntry() string {
	if s == SourceUSSD {
		return "Case created via USSD."
	}
	return "Case created via web dashboard."
}

// CaseService case lifecycle: creation with triage and auto-assignment, claims, agent updates
type CaseService interface {
	CreateCase(ctx context.Context, req CreateCaseRequest) (*domain.Case, error)
	// CreateWebCase creates a case for the patient behind actor
	CreateWebCase(ctx context.Context, actor Actor, symptom string) (*domain.Case, error)
	ClaimCase(ctx context.Context, caseID int64, actor Actor) (*domain.Case, error)
	UpdateCase(ctx context.Context, caseID int64, req UpdateCaseRequest, actor Actor) (*domain.Case, error)
	GetCase(ctx context.Context, caseID int64, actor Actor) (*domain.Case, error)
	ListCases(ctx context.Context, actor Actor) ([]*domain.Case, error)
	CaseHistory(ctx context.Context, caseID int64, actor Actor) ([]domain.CaseHistory, error)
}

// CreateCaseRequest new case for an existing patient
type CreateCaseRequest struct {
	PatientID int64
	Symptom   string
	Source    CaseSource
}

// UpdateCaseRequest agent edit; nil fields are left unchanged
type UpdateCaseRequest struct {
	SymptomInput *string `json:"symptom_input"`
	Status       *string `json:"status"`
	AgentNotes   *string `json:"agent_notes"`
}

type caseService struct {
	patients  repository.PatientsRepository
	agents    repository.AgentsRepository
	cases     repository.CasesRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewCaseService creates a CaseService
func NewCaseService(repos *repository.Repositories, publisher events.Publisher, logger *zap.Logger) CaseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &caseService{
		patients:  repos.Patients,
		agents:    repos.Agents,
		cases:     repos.Cases,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *caseService) CreateCase(ctx context.Context, req CreateCaseRequest) (*domain.Case, error) {
	patient, err := s.patients.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient %d: %w", req.PatientID, err)
	}

	assessment := triage.Assess(req.Symptom)
	c := &domain.Case{
		PatientID:          patient.PatientID,
		SymptomInput:       req.Symptom,
		LanguageCode:       patient.LanguageCode,
		PaymentDeclaration: patient.PaymentDeclaration,
		Status:             domain.StatusNew,
		Triage: domain.Triage{
			Urgency:  assessment.Urgency,
			Category: assessment.Category,
			Summary:  assessment.Summary,
		},
	}
	if err := s.cases.CreateCase(ctx, c, req.Source.historyEntry()); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	c.PatientPhone = patient.PhoneNumber

	s.logger.Info("Case created",
		zap.Int64("case_id", c.CaseID),
		zap.Int64("patient_id", c.PatientID),
		zap.String("source", string(req.Source)),
		zap.String("urgency", c.Urgency),
		zap.String("category", c.Category),
	)
	s.publish(ctx, events.Event{Type: events.CaseCreated, CaseID: c.CaseID, Status: string(c.Status), Urgency: c.Urgency})

	if assigned := s.autoAssign(ctx, c); assigned != nil {
		return assigned, nil
	}
	return c, nil
}

// autoAssign binds the least-loaded active agent. Failures leave the case new.
func (s *caseService) autoAssign(ctx context.Context, c *domain.Case) *domain.Case {
	workload, err := s.agents.ListActiveWorkload(ctx, assign.OpenStatuses)
	if err != nil {
		s.logger.Error("Auto-assignment failed: workload query", zap.Int64("case_id", c.CaseID), zap.Error(err))
		return nil
	}
	pick, ok := assign.Select(assign.FromWorkload(workload))
	if !ok {
		s.logger.Warn("No active agents available for auto-assignment", zap.Int64("case_id", c.CaseID))
		return nil
	}

	history := fmt.Sprintf("Case automatically assigned to agent %s.", pick.FullName)
	won, err := s.cases.AssignIfUnassigned(ctx, c.CaseID, pick.AgentID, history)
	if err != nil {
		s.logger.Error("Auto-assignment failed", zap.Int64("case_id", c.CaseID), zap.Int64("agent_id", pick.AgentID), zap.Error(err))
		return nil
	}
	if !won {
		return nil
	}

	s.logger.Info("Case auto-assigned",
		zap.Int64("case_id", c.CaseID),
		zap.Int64("agent_id", pick.AgentID),
		zap.Int("open_cases", pick.OpenCases),
	)
	agentID := pick.AgentID
	s.publish(ctx, events.Event{Type: events.CaseAssigned, CaseID: c.CaseID, AgentID: &agentID, Status: string(domain.StatusAssigned), Urgency: c.Urgency})

	updated, err := s.cases.GetCase(ctx, c.CaseID)
	if err != nil {
		s.logger.Warn("Reload after auto-assignment failed", zap.Int64("case_id", c.CaseID), zap.Error(err))
		c.AgentID = &agentID
		c.AgentName = pick.FullName
		c.Status = domain.StatusAssigned
		return c
	}
	return updated
}

func (s *caseService) CreateWebCase(ctx context.Context, actor Actor, symptom string) (*domain.Case, error) {
	symptom = strings.TrimSpace(symptom)
	if symptom == "" {
		return nil, validationf("symptom_input is required")
	}
	patient, err := s.patients.GetPatientByPhone(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return s.CreateCase(ctx, CreateCaseRequest{PatientID: patient.PatientID, Symptom: symptom, Source: SourceWeb})
}

func (s *caseService) ClaimCase(ctx context.Context, caseID int64, actor Actor) (*domain.Case, error) {
	if !actor.IsAgent() {
		return nil, ErrNoAgentProfile
	}
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.IsAssigned() {
		return nil, &AlreadyAssignedError{Username: c.AgentUsername}
	}

	agent, err := s.agents.GetAgent(ctx, *actor.AgentID)
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}

	won, err := s.cases.AssignIfUnassigned(ctx, caseID, agent.AgentID, fmt.Sprintf("Case claimed by agent %s.", agent.FullName))
	if err != nil {
		return nil, fmt.Errorf("claim case: %w", err)
	}
	if !won {
		// lost the race between the read and the conditional update
		holder, err := s.cases.GetCase(ctx, caseID)
		if err != nil {
			return nil, err
		}
		return nil, &AlreadyAssignedError{Username: holder.AgentUsername}
	}

	s.logger.Info("Case claimed", zap.Int64("case_id", caseID), zap.Int64("agent_id", agent.AgentID))
	agentID := agent.AgentID
	s.publish(ctx, events.Event{Type: events.CaseAssigned, CaseID: caseID, AgentID: &agentID, Status: string(domain.StatusAssigned)})
	return s.cases.GetCase(ctx, caseID)
}

func (s *caseService) UpdateCase(ctx context.Context, caseID int64, req UpdateCaseRequest, actor Actor) (*domain.Case, error) {
	if !actor.seesAllCases() {
		return nil, ErrForbidden
	}
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	update := repository.CaseUpdate{SymptomInput: req.SymptomInput, AgentNotes: req.AgentNotes}
	if req.Status != nil {
		status := domain.CaseStatus(*req.Status)
		if !status.Valid() {
			return nil, validationf("\"%s\" is not a valid choice.", *req.Status)
		}
		if status == domain.StatusAssigned && !c.IsAssigned() {
			return nil, validationf("a case cannot be marked assigned without an agent")
		}
		update.Status = &status
	}

	editor := "Admin"
	if actor.IsAgent() {
		if agent, err := s.agents.GetAgent(ctx, *actor.AgentID); err == nil {
			editor = agent.FullName
		} else {
			editor = actor.Username
		}
	}
	if err := s.cases.UpdateCase(ctx, caseID, update, fmt.Sprintf("Case updated by agent %s.", editor)); err != nil {
		return nil, err
	}

	updated, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.CaseUpdated, CaseID: caseID, AgentID: updated.AgentID, Status: string(updated.Status)})
	return updated, nil
}

func (s *caseService) GetCase(ctx context.Context, caseID int64, actor Actor) (*domain.Case, error) {
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if actor.seesAllCases() || c.PatientPhone == actor.Username {
		return c, nil
	}
	return nil, ErrNotFound
}

func (s *caseService) ListCases(ctx context.Context, actor Actor) ([]*domain.Case, error) {
	if actor.seesAllCases() {
		return s.cases.ListCases(ctx, repository.CaseFilter{})
	}
	patient, err := s.patients.GetPatientByPhone(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []*domain.Case{}, nil
		}
		return nil, err
	}
	return s.cases.ListCases(ctx, repository.CaseFilter{PatientID: &patient.PatientID})
}

func (s *caseService) CaseHistory(ctx context.Context, caseID int64, actor Actor) ([]domain.CaseHistory, error) {
	if _, err := s.GetCase(ctx, caseID, actor); err != nil {
		return nil, err
	}
	return s.cases.ListHistory(ctx, caseID)
}

func (s *caseService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Case event not published", zap.String("type", string(ev.Type)), zap.Int64("case_id", ev.CaseID), zap.Error(err))
	}
}
