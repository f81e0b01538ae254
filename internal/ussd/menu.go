package ussd

import (
	"context"
	"errors"

	"github.com/fanuel08/Medicine-project/internal/repository"

	"go.uber.org/zap"
)

// Menu keys
const (
	MenuWelcome          = "welcome_menu"
	MenuPaymentDecl      = "payment_declaration_menu"
	MenuEnterSymptom     = "enter_symptom_menu"
	MenuCaseCreated      = "case_created_success"
	MenuInvalidSelection = "invalid_selection_menu"
)

// DefaultFallback shown when a menu is missing in every language
const DefaultFallback = "Error: Menu not configured. Please contact support."

// MenuLookup resolves menu text: requested language, then the default
// language, then a fixed string. It never returns an error.
type MenuLookup struct {
	store           repository.MenuTextsRepository
	defaultLanguage string
	fallback        string
	logger          *zap.Logger
}

func NewMenuLookup(store repository.MenuTextsRepository, defaultLanguage, fallback string, logger *zap.Logger) *MenuLookup {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &MenuLookup{store: store, defaultLanguage: defaultLanguage, fallback: fallback, logger: logger}
}

func (m *MenuLookup) Text(ctx context.Context, key, language string) string {
	if language == "" {
		language = m.defaultLanguage
	}
	if text, ok := m.get(ctx, key, language); ok {
		return text
	}
	if language != m.defaultLanguage {
		if text, ok := m.get(ctx, key, m.defaultLanguage); ok {
			return text
		}
	}
	m.logger.Warn("USSD menu text missing", zap.String("menu_key", key), zap.String("language", language))
	return m.fallback
}

func (m *MenuLookup) get(ctx context.Context, key, language string) (string, bool) {
	text, err := m.store.GetMenuText(ctx, key, language)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			m.logger.Error("USSD menu lookup failed", zap.String("menu_key", key), zap.String("language", language), zap.Error(err))
		}
		return "", false
	}
	return text, true
}
