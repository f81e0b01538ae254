// Package assign picks the least loaded agent for a new case.
package assign

import (
	"sort"
	"time"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// OpenStatuses count toward an agent's workload
var OpenStatuses = []domain.CaseStatus{
	domain.StatusNew,
	domain.StatusAssigned,
	domain.StatusViewed,
	domain.StatusNeedsFollowUp,
}

// Candidate an active agent with its current open case count
type Candidate struct {
	AgentID   int64
	FullName  string
	OpenCases int
	CreatedAt time.Time
}

// FromWorkload converts repository rows into candidates
func FromWorkload(rows []domain.AgentWorkload) []Candidate {
	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, Candidate{
			AgentID:   r.Agent.AgentID,
			FullName:  r.Agent.FullName,
			OpenCases: r.OpenCases,
			CreatedAt: r.Agent.CreatedAt,
		})
	}
	return out
}

// Select returns the candidate with the smallest (OpenCases, CreatedAt).
// Equal pairs fall back to the lower AgentID. ok is false when candidates is empty.
// The input slice is not modified.
func Select(candidates []Candidate) (chosen Candidate, ok bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.OpenCases != b.OpenCases {
			return a.OpenCases < b.OpenCases
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.AgentID < b.AgentID
	})
	return sorted[0], true
}
