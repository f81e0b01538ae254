// Package ussd interprets the gateway's cumulative input text as a four-step menu.
package ussd

import (
	"strings"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// StepKind position in the menu flow
type StepKind int

const (
	StepInvalid StepKind = iota
	StepWelcome
	StepLanguage
	StepPayment
	StepSymptom
)

func (k StepKind) String() string {
	switch k {
	case StepWelcome:
		return "welcome"
	case StepLanguage:
		return "language"
	case StepPayment:
		return "payment"
	case StepSymptom:
		return "symptom"
	}
	return "invalid"
}

// Step classified input. Only the fields relevant to Kind are set.
type Step struct {
	Kind        StepKind
	Language    string
	Declaration string
	Symptom     string
}

var languageOptions = map[string]string{
	"1": domain.LanguageEnglish,
	"2": domain.LanguageSwahili,
}

var declarationOptions = map[string]string{
	"1": domain.DeclarationStandard,
	"2": domain.DeclarationSmallFee,
	"3": domain.DeclarationCannotPay,
}

// Parse classifies the '*'-joined selections sent by the gateway
func Parse(text string) Step {
	if text == "" {
		return Step{Kind: StepWelcome}
	}
	parts := strings.Split(text, "*")

	lang, ok := languageOptions[parts[0]]
	if !ok {
		return Step{Kind: StepInvalid}
	}

	switch len(parts) {
	case 1:
		return Step{Kind: StepLanguage, Language: lang}
	case 2:
		decl, ok := declarationOptions[parts[1]]
		if !ok {
			return Step{Kind: StepInvalid}
		}
		return Step{Kind: StepPayment, Language: lang, Declaration: decl}
	case 3:
		decl, ok := declarationOptions[parts[1]]
		if !ok {
			return Step{Kind: StepInvalid}
		}
		return Step{Kind: StepSymptom, Language: lang, Declaration: decl, Symptom: parts[2]}
	}
	return Step{Kind: StepInvalid}
}
