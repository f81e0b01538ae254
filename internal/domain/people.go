package domain

import "time"

// Language codes selectable from the USSD menu
const (
	LanguageEnglish = "en"
	LanguageSwahili = "sw"
)

// Payment declaration codes selectable from the USSD menu
const (
	DeclarationStandard  = "standard"
	DeclarationSmallFee  = "small_fee"
	DeclarationCannotPay = "cannot_pay"
)

// Patient end user reaching the service over USSD, keyed by phone number
type Patient struct {
	PatientID          int64      `json:"user_id"`
	PhoneNumber        string     `json:"phone_number"`
	LanguageCode       string     `json:"default_language"`
	PaymentDeclaration string     `json:"payment_declaration"`
	OTP                string     `json:"-"`
	OTPExpiry          *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Account login identity. AgentID is set only for accounts with an agent profile.
type Account struct {
	AccountID    int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // "" means no usable password
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	AgentID      *int64    `json:"agent_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasAgentProfile reports whether the account belongs to an agent
func (a *Account) HasAgentProfile() bool {
	return a != nil && a.AgentID != nil
}

// Agent community health agent who claims and resolves cases
type Agent struct {
	AgentID     int64     `json:"agent_id"`
	AccountID   int64     `json:"account_id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// AgentWorkload an active agent plus the count of its open cases
type AgentWorkload struct {
	Agent     Agent
	OpenCases int
}
