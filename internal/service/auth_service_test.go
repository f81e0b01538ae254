package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fanuel08/Medicine-project/internal/auth"
)

func newAuthFixture() (AuthService, *auth.TokenIssuer) {
	repos := newTestRepos()
	tokens := auth.NewTokenIssuer("test-secret", 5*time.Minute, 24*time.Hour)
	return NewAuthService(repos, tokens, zap.NewNop()), tokens
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Username:    "jane",
		Password:    "s3cret-pass",
		FullName:    "Jane Wanjiru",
		Email:       "Jane@Example.com",
		PhoneNumber: "0711000000",
	}
}

func TestRegister_ApproveLogin(t *testing.T) {
	svc, tokens := newAuthFixture()
	ctx := context.Background()

	agent, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.False(t, agent.IsActive)

	_, err = svc.Login(ctx, "jane", "s3cret-pass")
	assert.ErrorIs(t, err, ErrAccountInactive)

	status, err := svc.ApprovalStatus(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, ApprovalStatus{Exists: true, IsActive: false}, *status)

	approved, changed, err := svc.ApproveAgent(ctx, agent.AgentID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "jane", approved.Username)

	_, changed, err = svc.ApproveAgent(ctx, agent.AgentID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = svc.Login(ctx, "jane", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	pair, err := svc.Login(ctx, "jane", "s3cret-pass")
	require.NoError(t, err)

	actor, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "jane", actor.Username)
	require.True(t, actor.IsAgent())
	assert.Equal(t, agent.AgentID, *actor.AgentID)

	access, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = tokens.Parse(access, auth.TokenAccess)
	assert.NoError(t, err)

	me, err := svc.Me(ctx, actor.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Wanjiru", me.FullName)
	assert.True(t, me.IsActive)
	assert.False(t, me.IsStaff)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	missing := validRegistration()
	missing.PhoneNumber = ""
	_, err := svc.Register(ctx, missing)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	dupEmail := validRegistration()
	dupEmail.Username = "jane2"
	dupEmail.Email = "JANE@example.COM"
	_, err = svc.Register(ctx, dupEmail)
	assert.ErrorIs(t, err, ErrValidation)

	exists, err := svc.EmailExists(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApproveAgent_Missing(t *testing.T) {
	svc, _ := newAuthFixture()
	_, _, err := svc.ApproveAgent(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "first"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "second"))

	_, err := svc.Login(ctx, "admin", "first")
	assert.ErrorIs(t, err, ErrInvalidLogin)
	pair, err := svc.Login(ctx, "admin", "second")
	require.NoError(t, err)

	actor, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.True(t, actor.IsStaff)
	assert.False(t, actor.IsAgent())
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "pw"))
	pair, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
