package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// MemoryStore backs every repository interface when DB is disabled.
// One mutex guards all tables so multi-table writes stay atomic like the Postgres transactions.
type MemoryStore struct {
	mu sync.RWMutex

	patients map[int64]domain.Patient
	accounts map[int64]domain.Account
	agents   map[int64]domain.Agent
	cases    map[int64]domain.Case
	history  []domain.CaseHistory
	payments []domain.Payment
	menus    map[string]string // key|lang -> text

	nextPatient, nextAccount, nextAgent, nextCase, nextHistory, nextPayment int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: map[int64]domain.Patient{},
		accounts: map[int64]domain.Account{},
		agents:   map[int64]domain.Agent{},
		cases:    map[int64]domain.Case{},
		menus:    map[string]string{},
		now:      time.Now,
	}
}

var (
	_ PatientsRepository  = (*MemoryStore)(nil)
	_ AccountsRepository  = (*MemoryStore)(nil)
	_ AgentsRepository    = (*MemoryStore)(nil)
	_ CasesRepository     = (*MemoryStore)(nil)
	_ PaymentsRepository  = (*MemoryStore)(nil)
	_ MenuTextsRepository = (*MemoryStore)(nil)
)

// ---- patients ----

func (m *MemoryStore) UpsertPatientByPhone(_ context.Context, phone string) (*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.patients {
		if p.PhoneNumber == phone {
			return &p, nil
		}
	}
	m.nextPatient++
	now := m.now()
	p := domain.Patient{PatientID: m.nextPatient, PhoneNumber: phone, CreatedAt: now, UpdatedAt: now}
	m.patients[p.PatientID] = p
	return &p, nil
}

func (m *MemoryStore) GetPatientByPhone(_ context.Context, phone string) (*domain.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.patients {
		if p.PhoneNumber == phone {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetPatient(_ context.Context, patientID int64) (*domain.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.patients[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) updatePatient(patientID int64, fn func(p *domain.Patient)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = m.now()
	m.patients[patientID] = p
	return nil
}

func (m *MemoryStore) SetPatientLanguage(_ context.Context, patientID int64, languageCode string) error {
	return m.updatePatient(patientID, func(p *domain.Patient) { p.LanguageCode = languageCode })
}

func (m *MemoryStore) SetPatientPaymentDeclaration(_ context.Context, patientID int64, declaration string) error {
	return m.updatePatient(patientID, func(p *domain.Patient) { p.PaymentDeclaration = declaration })
}

func (m *MemoryStore) SetPatientOTP(_ context.Context, patientID int64, code string, expiry *time.Time) error {
	return m.updatePatient(patientID, func(p *domain.Patient) {
		p.OTP = code
		if expiry == nil {
			p.OTPExpiry = nil
			return
		}
		e := *expiry
		p.OTPExpiry = &e
	})
}

// ---- accounts / agents ----

func (m *MemoryStore) accountLocked(a domain.Account) *domain.Account {
	for _, ag := range m.agents {
		if ag.AccountID == a.AccountID {
			id := ag.AgentID
			a.AgentID = &id
			break
		}
	}
	return &a
}

func (m *MemoryStore) usernameTakenLocked(username string) bool {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, username) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateAgentAccount(_ context.Context, account *domain.Account, agent *domain.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usernameTakenLocked(account.Username) {
		return fmt.Errorf("%w: accounts_username_key", ErrDuplicate)
	}
	if account.Email != "" {
		for _, a := range m.accounts {
			if strings.EqualFold(a.Email, account.Email) {
				return fmt.Errorf("%w: accounts_email_key", ErrDuplicate)
			}
		}
	}

	now := m.now()
	m.nextAccount++
	account.AccountID = m.nextAccount
	account.CreatedAt = now
	m.nextAgent++
	agent.AgentID = m.nextAgent
	agent.AccountID = account.AccountID
	agent.Username = account.Username
	agent.IsActive = account.IsActive
	agent.CreatedAt = now
	account.AgentID = &agent.AgentID

	stored := *account
	stored.AgentID = nil
	m.accounts[account.AccountID] = stored
	m.agents[agent.AgentID] = *agent
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, accountID int64) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.accountLocked(a), nil
}

func (m *MemoryStore) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username {
			return m.accountLocked(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usernameTakenLocked(username), nil
}

func (m *MemoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Email != "" && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) upsertAccountLocked(username string, create func() domain.Account, update func(a *domain.Account)) *domain.Account {
	for id, a := range m.accounts {
		if a.Username == username {
			if update != nil {
				update(&a)
				m.accounts[id] = a
			}
			return m.accountLocked(a)
		}
	}
	a := create()
	m.nextAccount++
	a.AccountID = m.nextAccount
	a.CreatedAt = m.now()
	m.accounts[a.AccountID] = a
	return m.accountLocked(a)
}

func (m *MemoryStore) GetOrCreatePatientAccount(_ context.Context, phone string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.upsertAccountLocked(phone, func() domain.Account {
		return domain.Account{Username: phone, IsActive: true}
	}, nil)
	if a.IsStaff || a.HasAgentProfile() {
		return nil, fmt.Errorf("patient account %s: %w", phone, ErrDuplicate)
	}
	return a, nil
}

func (m *MemoryStore) UpsertStaffAccount(_ context.Context, username, passwordHash string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.upsertAccountLocked(username, func() domain.Account {
		return domain.Account{Username: username, PasswordHash: passwordHash, IsActive: true, IsStaff: true}
	}, func(a *domain.Account) {
		a.PasswordHash = passwordHash
		a.IsActive = true
		a.IsStaff = true
	}), nil
}

func (m *MemoryStore) agentLocked(agentID int64) (domain.Agent, bool) {
	ag, ok := m.agents[agentID]
	if !ok {
		return ag, false
	}
	if a, ok := m.accounts[ag.AccountID]; ok {
		ag.Username = a.Username
		ag.IsActive = a.IsActive
	}
	return ag, true
}

func (m *MemoryStore) GetAgent(_ context.Context, agentID int64) (*domain.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ag, ok := m.agentLocked(agentID)
	if !ok {
		return nil, ErrNotFound
	}
	return &ag, nil
}

func (m *MemoryStore) ActivateAgent(_ context.Context, agentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ag, ok := m.agents[agentID]
	if !ok {
		return false, ErrNotFound
	}
	a := m.accounts[ag.AccountID]
	if a.IsActive {
		return false, nil
	}
	a.IsActive = true
	m.accounts[a.AccountID] = a
	return true, nil
}

func (m *MemoryStore) ListActiveWorkload(_ context.Context, openStatuses []domain.CaseStatus) ([]domain.AgentWorkload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := make(map[domain.CaseStatus]bool, len(openStatuses))
	for _, s := range openStatuses {
		open[s] = true
	}
	counts := map[int64]int{}
	for _, c := range m.cases {
		if c.AgentID != nil && open[c.Status] {
			counts[*c.AgentID]++
		}
	}

	out := []domain.AgentWorkload{}
	for id := range m.agents {
		ag, _ := m.agentLocked(id)
		if !ag.IsActive {
			continue
		}
		out = append(out, domain.AgentWorkload{Agent: ag, OpenCases: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenCases != out[j].OpenCases {
			return out[i].OpenCases < out[j].OpenCases
		}
		if !out[i].Agent.CreatedAt.Equal(out[j].Agent.CreatedAt) {
			return out[i].Agent.CreatedAt.Before(out[j].Agent.CreatedAt)
		}
		return out[i].Agent.AgentID < out[j].Agent.AgentID
	})
	return out, nil
}

// ---- cases ----

// caseLocked fills the joined columns the Postgres select would return
func (m *MemoryStore) caseLocked(c domain.Case) *domain.Case {
	c.PatientPhone = m.patients[c.PatientID].PhoneNumber
	c.AgentName, c.AgentUsername = "", ""
	if c.AgentID != nil {
		if ag, ok := m.agentLocked(*c.AgentID); ok {
			c.AgentName = ag.FullName
			c.AgentUsername = ag.Username
		}
		id := *c.AgentID
		c.AgentID = &id
	}
	return &c
}

func (m *MemoryStore) appendHistoryLocked(caseID int64, description string) {
	m.nextHistory++
	m.history = append(m.history, domain.CaseHistory{
		HistoryID:   m.nextHistory,
		CaseID:      caseID,
		Timestamp:   m.now(),
		Description: description,
	})
}

func (m *MemoryStore) CreateCase(_ context.Context, c *domain.Case, history string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[c.PatientID]; !ok {
		return fmt.Errorf("insert case: patient %d: %w", c.PatientID, ErrNotFound)
	}
	if c.Status == "" {
		c.Status = domain.StatusNew
	}
	m.nextCase++
	now := m.now()
	c.CaseID = m.nextCase
	c.CreatedAt = now
	c.UpdatedAt = now
	m.cases[c.CaseID] = *c
	m.appendHistoryLocked(c.CaseID, history)
	return nil
}

func (m *MemoryStore) GetCase(_ context.Context, caseID int64) (*domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.caseLocked(c), nil
}

func (m *MemoryStore) GetCaseByCheckoutID(_ context.Context, checkoutRequestID string) (*domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if checkoutRequestID == "" {
		return nil, ErrNotFound
	}
	for _, c := range m.cases {
		if c.CheckoutRequestID == checkoutRequestID {
			return m.caseLocked(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListCases(_ context.Context, filter CaseFilter) ([]*domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.Case{}
	for _, c := range m.cases {
		if filter.PatientID != nil && c.PatientID != *filter.PatientID {
			continue
		}
		out = append(out, m.caseLocked(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CaseID > out[j].CaseID
	})
	return out, nil
}

func (m *MemoryStore) AssignIfUnassigned(_ context.Context, caseID, agentID int64, history string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok || c.AgentID != nil {
		return false, nil
	}
	id := agentID
	c.AgentID = &id
	c.Status = domain.StatusAssigned
	c.UpdatedAt = m.now()
	m.cases[caseID] = c
	m.appendHistoryLocked(caseID, history)
	return true, nil
}

func (m *MemoryStore) UpdateCase(_ context.Context, caseID int64, update CaseUpdate, history string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	if update.SymptomInput != nil {
		c.SymptomInput = *update.SymptomInput
	}
	if update.Status != nil {
		c.Status = *update.Status
	}
	if update.AgentNotes != nil {
		c.AgentNotes = *update.AgentNotes
	}
	c.UpdatedAt = m.now()
	m.cases[caseID] = c
	m.appendHistoryLocked(caseID, history)
	return nil
}

func (m *MemoryStore) SetCheckoutRequestID(_ context.Context, caseID int64, checkoutRequestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	c.CheckoutRequestID = checkoutRequestID
	c.UpdatedAt = m.now()
	m.cases[caseID] = c
	return nil
}

func (m *MemoryStore) setStatusLocked(caseID int64, status domain.CaseStatus) error {
	c, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = m.now()
	m.cases[caseID] = c
	return nil
}

func (m *MemoryStore) TransitionStatus(_ context.Context, caseID int64, status domain.CaseStatus, history string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.setStatusLocked(caseID, status); err != nil {
		return err
	}
	m.appendHistoryLocked(caseID, history)
	return nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, caseID int64, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[caseID]; !ok {
		return ErrNotFound
	}
	m.appendHistoryLocked(caseID, description)
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, caseID int64) ([]domain.CaseHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.CaseHistory{}
	for _, h := range m.history {
		if h.CaseID == caseID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].HistoryID > out[j].HistoryID
	})
	return out, nil
}

// ---- payments ----

func (m *MemoryStore) ConfirmPayment(_ context.Context, caseID int64, p *domain.Payment, history string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.setStatusLocked(caseID, domain.StatusPaid); err != nil {
		return err
	}
	m.appendHistoryLocked(caseID, history)
	if p == nil {
		return nil
	}
	p.CaseID = caseID
	for _, existing := range m.payments {
		if existing.MpesaReceiptNumber == p.MpesaReceiptNumber {
			return nil
		}
	}
	m.nextPayment++
	p.PaymentID = m.nextPayment
	p.CreatedAt = m.now()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *MemoryStore) ListPayments(_ context.Context, patientID *int64) ([]domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Payment{}
	for _, p := range m.payments {
		if patientID != nil && m.cases[p.CaseID].PatientID != *patientID {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].PaymentID > out[j].PaymentID
	})
	return out, nil
}

// ---- menu texts ----

func menuKey(key, lang string) string { return key + "|" + lang }

func (m *MemoryStore) GetMenuText(_ context.Context, key, languageCode string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.menus[menuKey(key, languageCode)]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

func (m *MemoryStore) UpsertMenuText(_ context.Context, mt domain.MenuText) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.menus[menuKey(mt.MenuKey, mt.LanguageCode)] = mt.Text
	return nil
}
