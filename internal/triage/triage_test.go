package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssess_Urgency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		urgency string
	}{
		{"intensifier with pain", "I have severe pain in my leg", UrgencyHigh},
		{"intensifier with headache", "UNBEARABLE headache since morning", UrgencyHigh},
		{"intensifier without topic", "extreme tiredness", UrgencyLow},
		{"high keyword", "my child is choking", UrgencyHigh},
		{"chest pain", "chest pain when walking", UrgencyHigh},
		{"moderate keyword", "fever and cough for two days", UrgencyModerate},
		{"plain headache is moderate", "mild headache", UrgencyModerate},
		{"nothing matches", "need advice on family planning", UrgencyLow},
		{"empty", "", UrgencyLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.urgency, Assess(tt.input).Urgency)
		})
	}
}

func TestAssess_SevereAndPainAlwaysHigh(t *testing.T) {
	inputs := []string{
		"severe pain",
		"pain, severe",
		"Severe back PAIN and rash",
		"xx severe xx painful xx",
	}
	for _, in := range inputs {
		assert.Equal(t, UrgencyHigh, Assess(in).Urgency, in)
	}
}

func TestAssess_CategoryPrecedence(t *testing.T) {
	// respiratory beats digestive beats injury
	assert.Equal(t, CategoryRespiratory, Assess("fever with stomach pain").Category)
	assert.Equal(t, CategoryDigestive, Assess("vomiting and a cut on the arm").Category)
	assert.Equal(t, CategoryInjury, Assess("deep wound").Category)
	assert.Equal(t, CategoryGeneral, Assess("feeling low").Category)
}

func TestAssess_Empty(t *testing.T) {
	a := Assess("")
	assert.Equal(t, UrgencyLow, a.Urgency)
	assert.Equal(t, CategoryGeneral, a.Category)
	assert.NotEmpty(t, a.Summary)
	assert.Contains(t, a.Summary, "no symptoms provided")
}

func TestAssess_SummaryTemplate(t *testing.T) {
	a := Assess("Fever")
	assert.Equal(t,
		"Patient reports symptoms consistent with a respiratory issue, including: Fever. Urgency has been assessed as Moderate.",
		a.Summary)
}
