// seed-menus loads USSD menu text from a YAML file into the
// ussd_menu_texts table. Existing (key, language) rows are overwritten.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fanuel08/Medicine-project/common/database"
	"github.com/fanuel08/Medicine-project/common/logger"
	"github.com/fanuel08/Medicine-project/internal/config"
	"github.com/fanuel08/Medicine-project/internal/domain"
	"github.com/fanuel08/Medicine-project/internal/repository"
)

type menuFile struct {
	Menus []domain.MenuText `yaml:"menus"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var filePath string
	var envPrefix string
	var dryRun bool

	flagSet := pflag.NewFlagSet("seed-menus", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "scripts/menus.yaml", "path to the YAML menu file")
	flagSet.StringVar(&envPrefix, "db-env-prefix", "", "read connection settings from PREFIX_HOST, PREFIX_PORT, ... instead of DB_*")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open menu file: %w", err)
	}
	defer f.Close()
	menus, err := loadMenus(f)
	if err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, "console", "seed-menus")
	if err != nil {
		return err
	}
	defer log.Sync()

	if dryRun {
		log.Info("Menu file is valid", zap.Int("entries", len(menus)))
		return nil
	}

	if envPrefix != "" {
		if err := cfg.Database.LoadFromEnv(envPrefix); err != nil {
			return err
		}
	}
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := seed(ctx, repository.NewPostgresMenuTextsRepository(db), menus)
	if err != nil {
		return err
	}
	log.Info("Menu texts seeded", zap.Int("entries", n), zap.String("database", cfg.Database.Database))
	return nil
}

// loadMenus decodes and validates a menu file; (key, language) must be unique
func loadMenus(r io.Reader) ([]domain.MenuText, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var mf menuFile
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode menus: %w", err)
	}
	if len(mf.Menus) == 0 {
		return nil, fmt.Errorf("no menus defined")
	}

	seen := make(map[string]bool, len(mf.Menus))
	for i, m := range mf.Menus {
		m.MenuKey = strings.TrimSpace(m.MenuKey)
		m.LanguageCode = strings.TrimSpace(m.LanguageCode)
		if m.MenuKey == "" || m.LanguageCode == "" || strings.TrimSpace(m.Text) == "" {
			return nil, fmt.Errorf("menu %d: key, language and text are required", i)
		}
		id := m.MenuKey + "/" + m.LanguageCode
		if seen[id] {
			return nil, fmt.Errorf("menu %d: duplicate entry %s", i, id)
		}
		seen[id] = true
		mf.Menus[i] = m
	}
	return mf.Menus, nil
}

func seed(ctx context.Context, store repository.MenuTextsRepository, menus []domain.MenuText) (int, error) {
	for i, m := range menus {
		if err := store.UpsertMenuText(ctx, m); err != nil {
			return i, fmt.Errorf("upsert %s/%s: %w", m.MenuKey, m.LanguageCode, err)
		}
	}
	return len(menus), nil
}
