package assign

import (
	"testing"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Empty(t *testing.T) {
	_, ok := Select(nil)
	assert.False(t, ok)
}

func TestSelect_FewestOpenCasesWins(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := Select([]Candidate{
		{AgentID: 1, OpenCases: 3, CreatedAt: base},
		{AgentID: 2, OpenCases: 1, CreatedAt: base.Add(48 * time.Hour)},
		{AgentID: 3, OpenCases: 2, CreatedAt: base.Add(-48 * time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, int64(2), got.AgentID)
}

func TestSelect_TieBrokenByEarliestCreatedAt(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := Select([]Candidate{
		{AgentID: 7, OpenCases: 0, CreatedAt: base.Add(time.Hour)},
		{AgentID: 9, OpenCases: 0, CreatedAt: base},
		{AgentID: 4, OpenCases: 0, CreatedAt: base.Add(2 * time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, int64(9), got.AgentID)
}

func TestSelect_MatchesMinimumPairForAllOrders(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pool := []Candidate{
		{AgentID: 1, OpenCases: 2, CreatedAt: base},
		{AgentID: 2, OpenCases: 1, CreatedAt: base.Add(3 * time.Hour)},
		{AgentID: 3, OpenCases: 1, CreatedAt: base.Add(time.Hour)},
		{AgentID: 4, OpenCases: 5, CreatedAt: base.Add(-time.Hour)},
	}
	// rotate the pool; the winner must not depend on input order
	for shift := range pool {
		rotated := append(append([]Candidate{}, pool[shift:]...), pool[:shift]...)
		got, ok := Select(rotated)
		require.True(t, ok)
		assert.Equal(t, int64(3), got.AgentID, "shift %d", shift)
	}
}

func TestSelect_DoesNotReorderInput(t *testing.T) {
	in := []Candidate{{AgentID: 2, OpenCases: 4}, {AgentID: 1, OpenCases: 0}}
	_, _ = Select(in)
	assert.Equal(t, int64(2), in[0].AgentID)
}

func TestFromWorkload(t *testing.T) {
	created := time.Now()
	got := FromWorkload([]domain.AgentWorkload{
		{Agent: domain.Agent{AgentID: 5, FullName: "Amina", CreatedAt: created}, OpenCases: 2},
	})
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{AgentID: 5, FullName: "Amina", OpenCases: 2, CreatedAt: created}, got[0])
}
