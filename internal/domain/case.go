package domain

import "time"

// CaseStatus lifecycle state of a case
type CaseStatus string

const (
	StatusNew            CaseStatus = "new"
	StatusAssigned       CaseStatus = "assigned_to_agent"
	StatusViewed         CaseStatus = "agent_viewed"
	StatusPaymentPending CaseStatus = "payment_pending"
	StatusPaid           CaseStatus = "paid"
	StatusActionTaken    CaseStatus = "agent_action_taken"
	StatusReferred       CaseStatus = "referred"
	StatusResolved       CaseStatus = "resolved"
	StatusClosed         CaseStatus = "closed"
	StatusNeedsFollowUp  CaseStatus = "needs_follow_up"
)

var allStatuses = []CaseStatus{
	StatusNew, StatusAssigned, StatusViewed, StatusPaymentPending, StatusPaid,
	StatusActionTaken, StatusReferred, StatusResolved, StatusClosed, StatusNeedsFollowUp,
}

// Valid reports whether s is one of the known statuses
func (s CaseStatus) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label human readable name
func (s CaseStatus) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusAssigned:
		return "Assigned to Agent"
	case StatusViewed:
		return "Viewed by Agent"
	case StatusPaymentPending:
		return "Payment Pending"
	case StatusPaid:
		return "Paid"
	case StatusActionTaken:
		return "Action Taken"
	case StatusReferred:
		return "Referred"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	case StatusNeedsFollowUp:
		return "Needs Follow-up"
	}
	return string(s)
}

// Triage result stored on a case at creation and never recomputed
type Triage struct {
	Urgency  string `json:"ai_urgency"`
	Category string `json:"ai_category"`
	Summary  string `json:"ai_summary"`
}

// Case a patient's reported health issue
type Case struct {
	CaseID             int64      `json:"case_id"`
	PatientID          int64      `json:"user"`
	PatientPhone       string     `json:"patient_phone,omitempty"`
	AgentID            *int64     `json:"agent_id"`
	AgentName          string     `json:"agent"` // full name of the assigned agent, "" when unassigned
	AgentUsername      string     `json:"-"`
	SymptomInput       string     `json:"symptom_input"`
	LanguageCode       string     `json:"case_language"`
	PaymentDeclaration string     `json:"case_payment_declaration"`
	Status             CaseStatus `json:"status"`
	AgentNotes         string     `json:"agent_notes"`
	CheckoutRequestID  string     `json:"-"`
	Triage
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAssigned reports whether an agent is bound to the case
func (c *Case) IsAssigned() bool {
	return c.AgentID != nil
}

// CaseHistory one append-only timeline entry
type CaseHistory struct {
	HistoryID   int64     `json:"history_id"`
	CaseID      int64     `json:"case_id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}
