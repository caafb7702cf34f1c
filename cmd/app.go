package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/equipment-inventory/internal"
	"github.com/frahmantamala/equipment-inventory/internal/audit"
	auditPostgres "github.com/frahmantamala/equipment-inventory/internal/audit/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/auth"
	authPostgres "github.com/frahmantamala/equipment-inventory/internal/auth/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/catalog"
	catalogPostgres "github.com/frahmantamala/equipment-inventory/internal/catalog/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/command"
	"github.com/frahmantamala/equipment-inventory/internal/confirm"
	"github.com/frahmantamala/equipment-inventory/internal/core/events"
	"github.com/frahmantamala/equipment-inventory/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/equipment-inventory/internal/equipment/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/pending"
	"github.com/frahmantamala/equipment-inventory/internal/renewal"
	"github.com/frahmantamala/equipment-inventory/internal/report"
	reportPostgres "github.com/frahmantamala/equipment-inventory/internal/report/postgres"
	"github.com/frahmantamala/equipment-inventory/internal/user"
	userPostgres "github.com/frahmantamala/equipment-inventory/internal/user/postgres"
	"github.com/frahmantamala/equipment-inventory/pkg/logger"
)

// App holds every wired service for one CLI invocation.
type App struct {
	Config   *internal.Config
	DB       *gorm.DB
	Logger   *slog.Logger
	Prompter *terminalPrompter
	Out      io.Writer

	AuthRepo   *authPostgres.Repository
	Auth       *auth.Service
	Gate       *auth.Gate
	Dispatcher *command.Dispatcher
	Audit      *audit.Service
	Catalog    *catalog.Service
	Equipment  *equipment.Service
	Renewal    *renewal.Service
	Users      *user.Service
	Pending    *pending.Service
	Reports    *report.Service
}

func newApp() (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	prompter := newTerminalPrompter(os.Stdin, os.Stderr)
	confirmer := confirm.NewProtocol(prompter, cfg.Confirmation.CancelToken, cfg.Confirmation.MaxAttempts, log)

	bus := events.NewEventBus(log)
	out := os.Stdout
	subscribeNotifications(bus, out)

	auditSvc := audit.NewService(auditPostgres.NewAuditRepository(db), log)

	authRepo := authPostgres.NewRepository(db)
	tokens := auth.NewTokenIssuer(cfg.Security.SessionSecret, cfg.Security.SessionTTL)
	sessions := auth.NewFileSessionStore(cfg.Security.SessionFile)
	authSvc := auth.NewService(authRepo, tokens, sessions, auditSvc, log)
	gate := auth.NewGate(auth.NewPermissionChecker(), log)

	store := equipmentPostgres.NewEquipmentRepository(db)
	catalogSvc := catalog.NewService(catalogPostgres.NewCatalogRepository(db), store, gate, confirmer, auditSvc, log)

	reader := reportPostgres.NewReportRepository(sqlx.NewDb(sqlDB, sqlxDriverName(db)))

	return &App{
		Config:     cfg,
		DB:         db,
		Logger:     log,
		Prompter:   prompter,
		Out:        out,
		AuthRepo:   authRepo,
		Auth:       authSvc,
		Gate:       gate,
		Dispatcher: command.NewDispatcher(gate, authSvc, log),
		Audit:      auditSvc,
		Catalog:    catalogSvc,
		Equipment:  equipment.NewService(store, catalogSvc, gate, confirmer, bus, log),
		Renewal:    renewal.NewService(store, gate, confirmer, bus, log),
		Users:      user.NewService(userPostgres.NewUserRepository(db), gate, confirmer, auditSvc, cfg.Security.BCryptCost, log),
		Pending:    pending.NewService(store, gate, log),
		Reports:    report.NewService(reader, gate, cfg.Reports.OutputDir, log),
	}, nil
}

func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// run opens the app, dispatches id and closes the app again.
func run(id command.ID, fn func(ctx context.Context, app *App, session *auth.Session) error) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	return app.Dispatcher.Run(ctx, id, func(ctx context.Context, session *auth.Session) error {
		return fn(ctx, app, session)
	})
}

// subscribeNotifications prints one line per committed status change.
func subscribeNotifications(bus *events.EventBus, out io.Writer) {
	bus.Subscribe(events.EventTypeStatusChanged, func(_ context.Context, ev events.Event) error {
		e, ok := ev.(*events.StatusChangedEvent)
		if !ok {
			return nil
		}
		fmt.Fprintf(out, "%s: %s -> %s (%s)\n", e.Tag, e.From, e.To, e.Action)
		return nil
	})
	bus.Subscribe(events.EventTypeEquipmentDeleted, func(_ context.Context, ev events.Event) error {
		e, ok := ev.(*events.EquipmentDeletedEvent)
		if !ok {
			return nil
		}
		fmt.Fprintf(out, "%s: deleted\n", e.Tag)
		return nil
	})
	bus.Subscribe(events.EventTypeRenewalResolved, func(_ context.Context, ev events.Event) error {
		e, ok := ev.(*events.RenewalResolvedEvent)
		if !ok {
			return nil
		}
		outcome := "rejected"
		if e.Approved {
			outcome = "approved"
		}
		fmt.Fprintf(out, "renewal %s -> %s %s\n", e.OldTag, e.NewTag, outcome)
		return nil
	})
}

// initDB opens the configured store through gorm.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverPostgres:
		dialector = postgres.Open(cfg.GetDSN())
	default:
		dialector = sqlite.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

func sqlxDriverName(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "pgx"
	}
	return "sqlite3"
}
