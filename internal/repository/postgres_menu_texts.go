package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fanuel08/Medicine-project/internal/domain"
)

// PostgresMenuTextsRepository ussd_menu_texts table
type PostgresMenuTextsRepository struct {
	db *sql.DB
}

// NewPostgresMenuTextsRepository creates the repository
func NewPostgresMenuTextsRepository(db *sql.DB) *PostgresMenuTextsRepository {
	return &PostgresMenuTextsRepository{db: db}
}

var _ MenuTextsRepository = (*PostgresMenuTextsRepository)(nil)

func (r *PostgresMenuTextsRepository) GetMenuText(ctx context.Context, menuKey, languageCode string) (string, error) {
	var text string
	err := r.db.QueryRowContext(ctx,
		`SELECT menu_text FROM ussd_menu_texts WHERE menu_key = $1 AND language_code = $2`,
		menuKey, languageCode).Scan(&text)
	if err != nil {
		return "", notFoundIfNoRows(err)
	}
	return text, nil
}

func (r *PostgresMenuTextsRepository) UpsertMenuText(ctx context.Context, m domain.MenuText) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ussd_menu_texts (menu_key, language_code, menu_text, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (menu_key, language_code) DO UPDATE SET menu_text = EXCLUDED.menu_text`,
		m.MenuKey, m.LanguageCode, m.Text)
	if err != nil {
		return fmt.Errorf("upsert menu text %s/%s: %w", m.MenuKey, m.LanguageCode, err)
	}
	return nil
}
