package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
	"github.com/ayurlekha/ayurlekha/internal/client/cache"
	"github.com/ayurlekha/ayurlekha/internal/client/config"
	"github.com/ayurlekha/ayurlekha/internal/client/services"
	"github.com/ayurlekha/ayurlekha/internal/logging"
)

// App wires the backend client, the local cache, and the services behind the
// REPL commands.
type App struct {
	config *config.Config
	log    logging.Logger

	client   backend.Client
	session  *services.SessionService
	patients *services.PatientService
	records  *services.RecordService
	uploads  *services.UploadService
	summary  *services.SummaryService

	reader *bufio.Reader
}

// NewApp opens the local cache and builds the backend client per the config.
// The hosted platform serves all three surfaces by default; a configured
// Postgres DSN or S3 endpoint swaps in the matching self-hosted surface.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	db, err := cache.Open(ctx, cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	rest := backend.NewRESTClient(cfg.PlatformURL, cfg.PlatformAnonKey)

	var store backend.ObjectStore = rest
	if cfg.S3Endpoint != "" {
		store = backend.NewS3Store(backend.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}

	var tables backend.Tables = rest
	var closers []func() error
	if cfg.TablesDSN != "" {
		pg, err := backend.NewPGTables(ctx, cfg.TablesDSN)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect tables: %w", err)
		}
		tables = pg
		closers = append(closers, pg.Close)
	}
	closers = append(closers, db.Close)

	client := backend.Compose(rest, store, tables, closers...)

	patients := services.NewPatientService(db, client, logger)
	records := services.NewRecordService(db, client, cfg.DocumentsBucket, cfg.SignedURLTTL, logger)
	session := services.NewSessionService(db, client, patients, records, logger)
	uploads := services.NewUploadService(client, records, session, cfg.DocumentsBucket, logger)
	summary := services.NewSummaryService(client, cfg.DocumentsBucket, cfg.SignedURLTTL, logger)

	return &App{
		config:   cfg,
		log:      logger,
		client:   client,
		session:  session,
		patients: patients,
		records:  records,
		uploads:  uploads,
		summary:  summary,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores state, starts the auth watcher, and hands control to the REPL.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.session.Stop()
		if err := a.client.Close(); err != nil {
			a.log.Warn(ctx, "close failed", "error", err)
		}
	}()

	if err := a.patients.Load(ctx); err != nil {
		a.log.Warn(ctx, "patient cache unavailable", "error", err)
	}
	if err := a.records.Load(ctx); err != nil {
		a.log.Warn(ctx, "record cache unavailable", "error", err)
	}
	a.session.Start(ctx)

	printlnFn("Welcome to Ayurlekha (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isSignedIn() bool {
	return a.session.Authenticated()
}

func (a *App) getStatus() string {
	sess := a.session.Current()
	if sess == nil {
		return ""
	}
	s := sess.Email
	if p := a.patients.Selected(); p != nil {
		s = s + " / " + p.Name
	}
	return fmt.Sprintf("(%s)", s)
}
