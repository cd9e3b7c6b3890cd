// Package app builds the long-lived components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/budgetrak/internal/advisor"
	"github.com/dvloznov/budgetrak/internal/ai"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/audit"
	"github.com/dvloznov/budgetrak/internal/auth"
	"github.com/dvloznov/budgetrak/internal/config"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/ledger/memory"
	"github.com/dvloznov/budgetrak/internal/ledger/notion"
	"github.com/dvloznov/budgetrak/internal/ledger/sheets"
	"github.com/dvloznov/budgetrak/internal/ledger/sqlite"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/pipeline"
	"github.com/dvloznov/budgetrak/internal/storage"
	"github.com/dvloznov/budgetrak/internal/storage/drive"
	"github.com/dvloznov/budgetrak/internal/storage/gcs"
	"github.com/dvloznov/budgetrak/internal/tools"
	"google.golang.org/api/option"
)

// App holds everything a process needs. Close releases it.
type App struct {
	Config   *config.Config
	Files    *storage.Router
	GCS      *gcs.Client
	Ledger   ledger.Store
	Sheets   *sheets.Client
	Model    ai.Generator
	Parser   *pipeline.Parser
	Importer *pipeline.Importer
	Advisor  *advisor.Advisor
	Recorder audit.Recorder

	closers []func() error
}

// Option overrides a component, mostly for tests.
type Option func(*options)

type options struct {
	model      ai.Generator
	ledger     ledger.Store
	httpClient *http.Client
}

// WithModel uses model instead of a Gemini client.
func WithModel(model ai.Generator) Option {
	return func(o *options) { o.model = model }
}

// WithLedger uses store instead of the configured backend.
func WithLedger(store ledger.Store) Option {
	return func(o *options) { o.ledger = store }
}

// WithGoogleClient uses hc for Drive and Sheets instead of the stored OAuth token.
func WithGoogleClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New validates cfg and builds the components. Drive is optional unless the
// ledger is a spreadsheet: without a stored token Drive tools report an auth
// problem instead of stopping the process.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	log := logger.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Files: &storage.Router{}}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	hc, authErr := o.httpClient, error(nil)
	if hc == nil {
		hc, authErr = googleClient(ctx, cfg)
	}
	if authErr != nil {
		if cfg.LedgerBackend == config.BackendSheets && o.ledger == nil {
			return nil, authErr
		}
		log.Warn().Err(authErr).Msg("Google Drive is unavailable until consent is granted")
		a.Files.DriveErr = authErr
	} else {
		d, err := drive.New(ctx, option.WithHTTPClient(hc))
		if err != nil {
			return nil, err
		}
		a.Files.Drive = d
	}

	if cfg.GCSBucket != "" {
		g, err := gcs.New(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		a.GCS = g
		a.Files.GCS = g
		a.closers = append(a.closers, g.Close)
	}

	if o.model != nil {
		a.Model = o.model
	} else {
		g, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.Model = g
	}

	if o.ledger != nil {
		a.Ledger = o.ledger
	} else if err := a.openLedger(ctx, hc); err != nil {
		return nil, err
	}

	if err := a.openRecorder(ctx); err != nil {
		return nil, err
	}

	a.Parser = pipeline.NewParser(a.Model)
	var importOpts []pipeline.ImporterOption
	importOpts = append(importOpts, pipeline.WithRecorder(a.Recorder))
	if cfg.ProcessedFolderID != "" {
		importOpts = append(importOpts, pipeline.WithArchive(a.Files, cfg.ProcessedFolderID))
	}
	a.Importer = pipeline.NewImporter(a.Files, a.Parser, a.Ledger, importOpts...)
	a.Advisor = advisor.New(a.Ledger, a.Model)

	log.Info().
		Str("ledger", cfg.LedgerBackend).
		Bool("drive", a.Files.Drive != nil).
		Bool("gcs", a.GCS != nil).
		Bool("audit", cfg.AuditEnabled()).
		Msg("Components ready")

	ok = true
	return a, nil
}

func googleClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	oauthCfg, err := auth.LoadClientConfig(cfg.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	p := auth.NewProvider(oauthCfg, auth.NewFileStore(cfg.OAuthTokenFile), nil)
	return p.HTTPClient(ctx)
}

func (a *App) openLedger(ctx context.Context, hc *http.Client) error {
	cfg := a.Config
	switch cfg.LedgerBackend {
	case config.BackendSheets:
		c, err := sheets.New(ctx, cfg.SheetID, cfg.SheetName, option.WithHTTPClient(hc))
		if err != nil {
			return err
		}
		a.Sheets = c
		a.Ledger = c
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.Ledger = s
	case config.BackendNotion:
		a.Ledger = notion.New(notion.NewAPIClient(cfg.NotionToken), cfg.NotionDatabase)
	case config.BackendMemory:
		a.Ledger = memory.New()
	default:
		return apperr.Config("app.New", fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend))
	}
	return nil
}

func (a *App) openRecorder(ctx context.Context) error {
	if !a.Config.AuditEnabled() {
		a.Recorder = audit.Noop{}
		return nil
	}
	bq, err := audit.NewBigQuery(ctx, a.Config.AuditProject, a.Config.AuditDataset)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, bq.Close)
	if err := bq.EnsureTables(ctx); err != nil {
		return err
	}
	a.Recorder = bq
	return nil
}

// Tools returns the tool service over the app's components.
func (a *App) Tools() *tools.Service {
	deps := tools.Deps{
		Files:    a.Files,
		Parser:   a.Parser,
		Ledger:   a.Ledger,
		Model:    a.Model,
		Importer: a.Importer,
	}
	if a.Sheets != nil {
		deps.SheetLedger = func(id string) ledger.Store { return a.Sheets.WithSpreadsheet(id) }
	}
	return tools.NewService(deps)
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
