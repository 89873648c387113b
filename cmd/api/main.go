package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/vinicaliel/SolarDetect-Fullstack/internal/api/http"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/api/http/handlers"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/audit"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/auth"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/config"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/observability"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/persistence"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/quota"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/repository"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()

	var userRepo repository.UserRepository
	if pool != nil {
		userRepo = repository.NewUserRepository(pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
		logger.Warn("postgres not configured, accounts are in-memory and lost on restart")
	}

	ledger := buildLedger(cfg.Quota.Backend, pool, redis, logger)

	var auditStore audit.Log
	var logRepo repository.RequestLogRepository
	if pool != nil {
		logRepo = repository.NewRequestLogRepository(pool)
		auditStore = logRepo
	} else {
		auditStore = audit.NewMemoryLog()
	}
	auditWriter := audit.NewWriter(auditStore, 256, logger)
	defer auditWriter.Close()

	policy := quota.Policy{
		StudentLimit: cfg.Quota.StudentLimit,
		CompanyLimit: cfg.Quota.CompanyLimit,
		Window:       cfg.Quota.Window(),
	}
	enforcer := quota.NewEnforcer(ledger, auditWriter, policy, logger)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo, enforcer, logRepo)
	predictService := service.NewPredictService(cfg.Predict)

	authenticator := auth.NewAuthenticator(authService.Codec(), cfg.Auth.HeaderPrefix, logger)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:          handlers.NewAuthHandler(authService),
		User:          handlers.NewUserHandler(userService),
		Predict:       handlers.NewPredictHandler(enforcer, predictService),
		Authenticator: authenticator,
		Metrics:       metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildLedger picks the quota backend. Postgres is the default; memory is the
// fallback when no database is configured.
func buildLedger(backend string, pool *pgxpool.Pool, redis *persistence.Redis, logger *zap.Logger) quota.Ledger {
	switch backend {
	case "redis":
		logger.Info("quota ledger backend: redis")
		return quota.NewRedisLedger(redis.Client)
	case "memory":
		logger.Info("quota ledger backend: memory")
		return quota.NewMemoryLedger()
	default:
		if pool != nil {
			logger.Info("quota ledger backend: postgres")
			return repository.NewQuotaRepository(pool)
		}
		logger.Warn("quota ledger backend: memory (no postgres pool)")
		return quota.NewMemoryLedger()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
