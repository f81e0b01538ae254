package repository

import (
	"context"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// CaseFilter narrows ListCases; zero value lists everything
type CaseFilter struct {
	PatientID *int64
}

// CaseUpdate partial update; nil fields are left unchanged
type CaseUpdate struct {
	SymptomInput *string
	Status       *domain.CaseStatus
	AgentNotes   *string
}

// CasesRepository cases and their append-only history.
// Every state-changing method writes its history row in the same transaction.
type CasesRepository interface {
	// CreateCase inserts c (CaseID, timestamps filled in) and its creation history entry
	CreateCase(ctx context.Context, c *domain.Case, history string) error

	GetCase(ctx context.Context, caseID int64) (*domain.Case, error)
	GetCaseByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.Case, error)
	ListCases(ctx context.Context, filter CaseFilter) ([]*domain.Case, error)

	// AssignIfUnassigned binds agentID and sets assigned_to_agent only when no agent is bound.
	// Returns false, nil when another agent already holds the case.
	AssignIfUnassigned(ctx context.Context, caseID, agentID int64, history string) (bool, error)

	UpdateCase(ctx context.Context, caseID int64, update CaseUpdate, history string) error
	SetCheckoutRequestID(ctx context.Context, caseID int64, checkoutRequestID string) error
	TransitionStatus(ctx context.Context, caseID int64, status domain.CaseStatus, history string) error
	AppendHistory(ctx context.Context, caseID int64, description string) error

	// ListHistory newest first
	ListHistory(ctx context.Context, caseID int64) ([]domain.CaseHistory, error)
}

// PaymentsRepository confirmed payments
type PaymentsRepository interface {
	// ConfirmPayment sets the case to paid, logs history and, when p is non-nil,
	// records p. A receipt number that already exists is ignored.
	ConfirmPayment(ctx context.Context, caseID int64, p *domain.Payment, history string) error

	// ListPayments newest transaction first; nil patientID lists all
	ListPayments(ctx context.Context, patientID *int64) ([]domain.Payment, error)
}

// MenuTextsRepository USSD screen text per (key, language)
type MenuTextsRepository interface {
	// GetMenuText returns ErrNotFound when the pair is missing
	GetMenuText(ctx context.Context, menuKey, languageCode string) (string, error)
	UpsertMenuText(ctx context.Context, m domain.MenuText) error
}
