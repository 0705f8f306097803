package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/addon"
	addonPostgres "github.com/frahmantamala/crm-backoffice/internal/addon/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/agreement"
	agreementPostgres "github.com/frahmantamala/crm-backoffice/internal/agreement/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	authPostgres "github.com/frahmantamala/crm-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/city"
	cityPostgres "github.com/frahmantamala/crm-backoffice/internal/city/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	contractorPostgres "github.com/frahmantamala/crm-backoffice/internal/contractor/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	"github.com/frahmantamala/crm-backoffice/internal/role"
	rolePostgres "github.com/frahmantamala/crm-backoffice/internal/role/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/servicepoint"
	servicePointPostgres "github.com/frahmantamala/crm-backoffice/internal/servicepoint/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/transport"
	"github.com/frahmantamala/crm-backoffice/internal/transport/rest"
	"github.com/frahmantamala/crm-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/crm-backoffice/internal/user/postgres"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var debugSQL bool

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	NATS   *nats.Conn
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Wait(ctx); err != nil {
			deps.Logger.Warn("event handlers did not finish", "error", err)
		}
		if deps.NATS != nil {
			if err := deps.NATS.Drain(); err != nil {
				deps.Logger.Warn("nats drain error", "error", err)
			}
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.Gorm
	base := transport.NewBaseHandler(lg)
	policy := auth.NewABACPolicy(lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(db), tokens, lg)

	roleService := role.NewService(rolePostgres.NewRoleRepository(db), lg)
	userService := user.NewService(userPostgres.NewRepository(db), roleService, cfg.Security.BCryptCost, lg)

	contractorService := contractor.NewService(
		contractorPostgres.NewContractorRepository(db, deps.DB),
		contractorPostgres.NewSuggestionRepository(db),
		contractorPostgres.NewFileRepository(db),
		policy,
		deps.Bus,
		lg,
	)
	servicePointService := servicepoint.NewService(
		servicePointPostgres.NewServicePointRepository(db),
		contractorPostgres.NewOwnerLookup(deps.DB),
		policy,
		lg,
	)

	checkers := []rest.Checker{rest.DBChecker{DB: deps.DB}}
	if deps.NATS != nil {
		checkers = append(checkers, events.Probe{Conn: deps.NATS})
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:         auth.NewHandler(authService),
		User:         user.NewHandler(userService),
		Role:         role.NewHandler(base, roleService),
		City:         city.NewHandler(base, city.NewService(cityPostgres.NewCityRepository(db), deps.Bus, lg)),
		Agreement:    agreement.NewHandler(base, agreement.NewService(agreementPostgres.NewAgreementRepository(db), deps.Bus, lg)),
		Addon:        addon.NewHandler(base, addon.NewService(addonPostgres.NewAddonRepository(db), lg)),
		Contractor:   contractor.NewHandler(base, contractorService),
		ServicePoint: servicepoint.NewHandler(base, servicePointService),
		Health:       rest.NewHealthHandler(checkers...),
	}, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		RequestTimeout: cfg.Server.RequestTimeout,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}, lg)

	if cfg.Server.OpenAPIPath != "" {
		checkAPIDocument(cfg.Server.OpenAPIPath, deps.Router, lg)
	}
}

// checkAPIDocument warns when the served routes and the API document disagree.
func checkAPIDocument(path string, router *chi.Mux, lg *slog.Logger) {
	doc, err := rest.LoadOpenAPI(context.Background(), path)
	if err != nil {
		lg.Warn("api document unusable", "path", path, "error", err)
		return
	}
	undocumented, stale, err := rest.RouteDrift(doc, router)
	if err != nil {
		lg.Warn("route walk failed", "error", err)
		return
	}
	for _, r := range undocumented {
		lg.Warn("route missing from api document", "route", r.String())
	}
	for _, r := range stale {
		lg.Warn("api document describes an unserved route", "route", r.String())
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(config)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := database.Open(db.DB, debugSQL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus, nc := initEventBus(config.Events, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gdb,
		Bus:    bus,
		NATS:   nc,
		Router: chi.NewRouter(),
		Logger: lg,
	}, nil
}

// initEventBus wires the audit log and, when configured, the NATS mirror.
// A NATS outage at startup degrades to in-process events only.
func initEventBus(cfg internal.EventsConfig, lg *slog.Logger) (*events.EventBus, *nats.Conn) {
	bus := events.NewEventBus(lg)
	bus.SubscribeAll(events.NewAuditLogger(lg).Handle)

	if cfg.NATSURL == "" {
		return bus, nil
	}
	nc, err := events.Connect(cfg, lg)
	if err != nil {
		lg.Warn("events stay in process", "error", err)
		return bus, nil
	}
	bus.SubscribeAll(events.NewNATSForwarder(nc, cfg.SubjectPrefix, lg).Handle)
	return bus, nc
}

// initDB opens the pgx backed pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func init() {
	httpServerCmd.Flags().BoolVar(&debugSQL, "debug-sql", false, "log every SQL statement")
}
