// Package triage classifies free-text symptom reports by keyword.
package triage

import (
	"fmt"
	"strings"
)

// Urgency levels
const (
	UrgencyLow      = "Low"
	UrgencyModerate = "Moderate"
	UrgencyHigh     = "High"
)

// Categories
const (
	CategoryRespiratory = "Respiratory Issue"
	CategoryDigestive   = "Digestive Issue"
	CategoryInjury      = "Injury / Pain"
	CategoryGeneral     = "General Inquiry"
)

var (
	intensifiers      = []string{"severe", "unbearable", "extreme", "intense"}
	intensifiedTopics = []string{"pain", "headache", "bleeding"}

	highUrgency = []string{
		"can't breathe", "breathing difficulty", "chest pain", "bleeding",
		"unconscious", "choking", "seizure", "head injury", "swallowing",
	}
	moderateUrgency = []string{
		"fever", "vomiting", "headache", "dizzy", "migraine",
		"cough", "rash", "stomach cramps", "back pain",
	}
)

// checked in order; first match wins
var categoryRules = []struct {
	category string
	keywords []string
}{
	{CategoryRespiratory, []string{"cough", "fever", "cold", "flu", "sore throat", "breathing"}},
	{CategoryDigestive, []string{"stomach", "nausea", "vomiting", "diarrhea"}},
	{CategoryInjury, []string{"cut", "bleeding", "wound", "bruise", "injury", "pain"}},
}

// Assessment triage output
type Assessment struct {
	Urgency  string
	Category string
	Summary  string
}

// Assess is pure and total over any input.
func Assess(symptom string) Assessment {
	lower := strings.ToLower(symptom)

	urgency := UrgencyLow
	switch {
	case containsAny(lower, intensifiers) && containsAny(lower, intensifiedTopics):
		urgency = UrgencyHigh
	case containsAny(lower, highUrgency):
		urgency = UrgencyHigh
	case containsAny(lower, moderateUrgency):
		urgency = UrgencyModerate
	}

	category := CategoryGeneral
	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			category = rule.category
			break
		}
	}

	reported := strings.TrimSpace(symptom)
	if reported == "" {
		reported = "(no symptoms provided)"
	}

	return Assessment{
		Urgency:  urgency,
		Category: category,
		Summary: fmt.Sprintf("Patient reports symptoms consistent with a %s, including: %s. Urgency has been assessed as %s.",
			strings.ToLower(category), reported, urgency),
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
