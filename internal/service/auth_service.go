package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/auth"
	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService agent registration, approval and password login
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Agent, error)
	Login(ctx context.Context, username, password string) (*auth.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (Actor, error)

	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ApprovalStatus(ctx context.Context, username string) (*ApprovalStatus, error)
	// ApproveAgent returns false when the agent was already active
	ApproveAgent(ctx context.Context, agentID int64) (*domain.Agent, bool, error)
	Me(ctx context.Context, accountID int64) (*MeResponse, error)

	// EnsureAdmin creates or resets the bootstrap staff account
	EnsureAdmin(ctx context.Context, username, password string) error
}

// RegisterRequest agent self-registration; every field is required
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// ApprovalStatus polled by the dashboard after registration
type ApprovalStatus struct {
	Exists   bool `json:"exists"`
	IsActive bool `json:"is_active"`
}

// MeResponse current account summary
type MeResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
	IsStaff  bool   `json:"is_staff"`
}

type authService struct {
	accounts repository.AccountsRepository
	agents   repository.AgentsRepository
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(repos *repository.Repositories, tokens *auth.TokenIssuer, logger *zap.Logger) AuthService {
	return &authService{
		accounts: repos.Accounts,
		agents:   repos.Agents,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*domain.Agent, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Username == "" || req.Password == "" || req.FullName == "" || req.Email == "" || req.PhoneNumber == "" {
		return nil, validationf("All fields are required.")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, validationf("Enter a valid email address.")
	}

	if exists, err := s.accounts.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, validationf("A user with that username already exists.")
	}
	if exists, err := s.accounts.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, validationf("A user with that email already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     false,
	}
	agent := &domain.Agent{FullName: req.FullName, PhoneNumber: req.PhoneNumber}
	if err := s.accounts.CreateAgentAccount(ctx, account, agent); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationf("A user with that username or email already exists.")
		}
		return nil, err
	}

	s.logger.Info("Agent registered", zap.Int64("agent_id", agent.AgentID), zap.String("username", account.Username))
	return agent, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*auth.Pair, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if account.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("Login failed: bad credentials", zap.String("username", username))
		return nil, ErrInvalidLogin
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}
	return s.tokens.IssuePair(account)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", err
	}
	account, err := s.accounts.GetAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", auth.ErrInvalidToken
		}
		return "", err
	}
	if !account.IsActive {
		return "", ErrAccountInactive
	}
	return s.tokens.IssueAccess(account)
}

// Authenticate resolves a bearer token to an Actor. Claims are signed, so no lookup is needed.
func (s *authService) Authenticate(_ context.Context, accessToken string) (Actor, error) {
	claims, err := s.tokens.Parse(accessToken, auth.TokenAccess)
	if err != nil {
		return Actor{}, err
	}
	return Actor{
		AccountID: claims.AccountID,
		Username:  claims.Username,
		IsStaff:   claims.IsStaff,
		AgentID:   claims.AgentID,
	}, nil
}

func (s *authService) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.accounts.UsernameExists(ctx, strings.TrimSpace(username))
}

func (s *authService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.accounts.EmailExists(ctx, strings.TrimSpace(email))
}

func (s *authService) ApprovalStatus(ctx context.Context, username string) (*ApprovalStatus, error) {
	account, err := s.accounts.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ApprovalStatus{}, nil
		}
		return nil, err
	}
	return &ApprovalStatus{Exists: true, IsActive: account.IsActive}, nil
}

func (s *authService) ApproveAgent(ctx context.Context, agentID int64) (*domain.Agent, bool, error) {
	changed, err := s.agents.ActivateAgent(ctx, agentID)
	if err != nil {
		return nil, false, err
	}
	agent, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.logger.Info("Agent approved", zap.Int64("agent_id", agentID), zap.String("username", agent.Username))
	}
	return agent, changed, nil
}

func (s *authService) Me(ctx context.Context, accountID int64) (*MeResponse, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	me := &MeResponse{
		ID:       account.AccountID,
		Username: account.Username,
		Email:    account.Email,
		IsActive: account.IsActive,
		IsStaff:  account.IsStaff,
	}
	if account.HasAgentProfile() {
		if agent, err := s.agents.GetAgent(ctx, *account.AgentID); err == nil {
			me.FullName = agent.FullName
		}
	}
	return me, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := s.accounts.UpsertStaffAccount(ctx, username, string(hash)); err != nil {
		return err
	}
	s.logger.Info("Admin account ensured", zap.String("username", username))
	return nil
}
