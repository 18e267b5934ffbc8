// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "marketplace-core/internal/api"
	"marketplace-core/internal/api/handler"
	"marketplace-core/internal/config"
	"marketplace-core/internal/notify"
	"marketplace-core/internal/repository"
	"marketplace-core/internal/repository/memory"
	"marketplace-core/internal/repository/postgres"
	"marketplace-core/internal/service"
	"marketplace-core/internal/util"
	"marketplace-core/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB      // nil with the memory store
	Memory *memory.Store // nil with the postgres store
	Redis  *redis.Client

	// Store handles
	Executor repository.DBExecutor
	Tx       service.TxManager

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	ApplicationRepository repository.ApplicationRepository
	QuoteRepository       repository.QuoteRepository

	Dispatcher notify.Dispatcher

	// Services
	WalletService      service.WalletService
	WorkflowService    service.WorkflowService
	QuoteService       service.QuoteService
	ApplicationFactory service.ApplicationFactory

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize loads configuration from the environment and initializes all components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig initializes all components from cfg.
func (app *Application) InitializeWithConfig(ctx context.Context, cfg *config.AppConfig) error {
	app.Config = cfg
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	// 1. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "store", cfg.StoreDriver)

	// 2. Open the store and its repositories
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		app.initMemoryStore()
	default:
		if err := app.initPostgresStore(); err != nil {
			return err
		}
	}
	app.Logger.Info("Repositories initialized.")

	// 3. Notifications
	app.Dispatcher = notify.NewLogDispatcher(app.Logger)
	if cfg.Redis.Addr != "" {
		rdb, err := notify.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		app.Redis = rdb
		app.Dispatcher = notify.NewRedisPublisher(rdb)
		app.Logger.Info("Publishing events to redis.", "channel", notify.EventsChannel)
	}

	// 4. Initialize Services
	app.WalletService = service.NewWalletService(app.Tx, app.Executor, app.WalletRepository, app.TransactionRepository)
	app.WorkflowService = service.NewWorkflowService(app.Tx, app.Executor,
		app.ApplicationRepository, app.QuoteRepository, app.WalletService, app.Dispatcher)
	app.QuoteService = service.NewQuoteService(app.Tx, app.Executor,
		app.ApplicationRepository, app.QuoteRepository, app.WalletService, app.Dispatcher)
	app.ApplicationFactory = service.NewApplicationFactory(app.Executor, app.ApplicationRepository, app.Dispatcher)
	app.Logger.Info("Services initialized.")

	// 5. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Wallet:      handler.NewWalletHandler(app.WalletService, app.Logger),
		Application: handler.NewApplicationHandler(app.WorkflowService, app.ApplicationFactory, app.Logger),
		Quote:       handler.NewQuoteHandler(app.QuoteService, app.Logger),
	}, router.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initPostgresStore() error {
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if app.Config.AutoMigrate {
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		app.Logger.Info("Database schema is up to date.")
	}

	app.Executor = database
	app.Tx = service.NewTxManager(database)
	app.WalletRepository = postgres.NewWalletRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.ApplicationRepository = postgres.NewApplicationRepository()
	app.QuoteRepository = postgres.NewQuoteRepository()
	return nil
}

func (app *Application) initMemoryStore() {
	store := memory.NewStore()
	app.Memory = store
	app.Executor = store
	app.Tx = service.TxManager{
		Begin:    store.Begin,
		Commit:   db.CommitTx,
		Rollback: db.RollbackTx,
	}
	app.WalletRepository = memory.NewWalletRepository(store)
	app.TransactionRepository = memory.NewTransactionRepository(store)
	app.ApplicationRepository = memory.NewApplicationRepository(store)
	app.QuoteRepository = memory.NewQuoteRepository(store)
	app.Logger.Warn("Using the in-memory store; data is lost on restart.")
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis client", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
