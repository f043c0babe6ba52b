package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jask/expensetracker/internal/archive"
	"github.com/jask/expensetracker/internal/classify"
	"github.com/jask/expensetracker/internal/config"
	"github.com/jask/expensetracker/internal/database"
	"github.com/jask/expensetracker/internal/database/repository"
	"github.com/jask/expensetracker/internal/logger"
	"github.com/jask/expensetracker/internal/service"
)

// app holds the wired services every command shares.
type app struct {
	cfg         config.Config
	log         zerolog.Logger
	db          *sql.DB
	formats     *service.FormatService
	ingest      *service.IngestService
	maintenance *service.MaintenanceService

	closeArchive func() error
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Console)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.Migrations); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	rules := classify.DefaultRules()
	if cfg.Classify.RulesFile != "" {
		if rules, err = classify.LoadRules(cfg.Classify.RulesFile); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	classifier, err := classify.New(rules)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	archiver, closeArchive, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	formats := &service.FormatService{Repo: repository.NewFormatRepo(db), File: cfg.Formats.File, Log: log}
	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		formats: formats,
		ingest: &service.IngestService{
			Formats:    formats,
			Classifier: classifier,
			Persister:  &service.Persister{DB: db, Retries: cfg.Ingest.Retries, Log: log},
			Archiver:   archiver,
			Timeout:    cfg.Ingest.Timeout,
			MaxRows:    cfg.Ingest.MaxRows,
			Log:        log,
		},
		maintenance:  &service.MaintenanceService{DB: db},
		closeArchive: closeArchive,
	}
	log.Debug().Str("db", cfg.Database.Path).Int("rules", len(rules)).Msg("app ready")
	return a, nil
}

func (a *app) Close() error {
	return errors.Join(a.closeArchive(), a.db.Close())
}
