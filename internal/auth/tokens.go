package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims carried by both token kinds
type Claims struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	IsStaff   bool   `json:"is_staff"`
	AgentID   *int64 `json:"agent_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair is what a successful login returns
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies HS256 bearer tokens
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) sign(a *domain.Account, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		AccountID: a.AccountID,
		Username:  a.Username,
		IsStaff:   a.IsStaff,
		AgentID:   a.AgentID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", a.AccountID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// IssuePair signs a fresh access + refresh token for the account
func (i *TokenIssuer) IssuePair(a *domain.Account) (*Pair, error) {
	access, err := i.sign(a, TokenAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(a, TokenRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs an access token only
func (i *TokenIssuer) IssueAccess(a *domain.Account) (string, error) {
	return i.sign(a, TokenAccess, i.accessTTL)
}

// Parse verifies signature, expiry and token type. A "Bearer " prefix is tolerated.
func (i *TokenIssuer) Parse(tokenString, wantType string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
