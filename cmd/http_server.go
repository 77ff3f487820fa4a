package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/article"
	articlePostgres "github.com/frahmantamala/intranet-portal/internal/article/postgres"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	authPostgres "github.com/frahmantamala/intranet-portal/internal/auth/postgres"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
	"github.com/frahmantamala/intranet-portal/internal/file"
	filePostgres "github.com/frahmantamala/intranet-portal/internal/file/postgres"
	"github.com/frahmantamala/intranet-portal/internal/menu"
	menuPostgres "github.com/frahmantamala/intranet-portal/internal/menu/postgres"
	"github.com/frahmantamala/intranet-portal/internal/reservation"
	reservationPostgres "github.com/frahmantamala/intranet-portal/internal/reservation/postgres"
	"github.com/frahmantamala/intranet-portal/internal/room"
	roomPostgres "github.com/frahmantamala/intranet-portal/internal/room/postgres"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/frahmantamala/intranet-portal/internal/transport/middleware"
	"github.com/frahmantamala/intranet-portal/internal/transport/rest"
	"github.com/frahmantamala/intranet-portal/internal/user"
	userPostgres "github.com/frahmantamala/intranet-portal/internal/user/postgres"
	"github.com/frahmantamala/intranet-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.App.Env)

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
		if err := deps.EventBus.Drain(ctx); err != nil {
			deps.Logger.Warn("Event handlers still running at shutdown", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	policy := auth.NewPolicy()

	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.AccessTokenDuration)
	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		tokenGen,
		auth.Options{RefreshTokenTTL: cfg.Security.RefreshTokenDuration},
		deps.EventBus,
		lg,
	)
	userService := user.NewService(userPostgres.NewRepository(deps.Gorm), policy, cfg.Security.BCryptCost, lg)
	roomService := room.NewService(roomPostgres.NewRoomRepository(deps.Gorm), policy, lg)
	reservationService := reservation.NewService(reservationPostgres.NewReservationRepository(deps.Gorm), policy, deps.EventBus, lg)
	articleService := article.NewService(articlePostgres.NewArticleRepository(deps.Gorm), policy, deps.EventBus, lg)
	menuService := menu.NewService(menuPostgres.NewMenuRepository(deps.Gorm), policy, lg)

	storage, err := file.NewDiskStorage(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}
	fileService := file.NewService(filePostgres.NewFileRepository(deps.Gorm), storage, policy, deps.EventBus, lg)
	fileService.LimitBytes(cfg.Storage.MaxUploadBytes)

	handlers := rest.Handlers{
		Health:      rest.NewHealthHandler(base, deps.DB, storage.Dir()),
		Auth:        auth.NewHandler(authService, cfg.Security.SecureCookies, lg),
		RBAC:        auth.NewRBACAuthorization(policy, lg),
		User:        user.NewHandler(base, userService),
		Room:        room.NewHandler(base, roomService),
		Reservation: reservation.NewHandler(base, reservationService),
		Article:     article.NewHandler(base, articleService),
		Menu:        menu.NewHandler(base, menuService),
		File:        file.NewHandler(base, fileService),
	}

	opts := rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}
	if cfg.Server.ValidateRequests && cfg.Server.OpenAPIPath != "" {
		doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPIPath)
		if err != nil {
			return err
		}
		validator, err := middleware.OpenAPIValidator(doc, lg)
		if err != nil {
			return err
		}
		opts.RequestValidator = validator
	}
	if cfg.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = middleware.NewMetrics(reg)
		opts.MetricsPath = cfg.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, handlers, opts, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Setup(os.Stdout, config.Observability.Logging.Format, config.Observability.Logging.Level)
	transport.ExposeInternalErrors(config.IsDevelopment())

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db, config.IsDevelopment())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gormDB,
		Router:   chi.NewRouter(),
		EventBus: bus,
	}, nil
}

// initDB initializes the database connection
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

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB, verbose bool) (*gorm.DB, error) {
	level := gormLogger.Warn
	if verbose {
		level = gormLogger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
}
