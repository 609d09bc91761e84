// @title         library-service API
// @version       1.0
// @description   Library catalog, accounts and lending with role-gated bearer tokens.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token. Accepts "Bearer <JWT>" or "<JWT>".
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"

	_ "github.com/artem13815/library/docs"

	// internal imports
	apihttp "github.com/artem13815/library/api/http"
	"github.com/artem13815/library/api/http/handlers"
	"github.com/artem13815/library/pkg/auth"
	"github.com/artem13815/library/pkg/catalog"
	"github.com/artem13815/library/pkg/config"
	"github.com/artem13815/library/pkg/health"
	"github.com/artem13815/library/pkg/health/checkers"
	"github.com/artem13815/library/pkg/lending"
	"github.com/artem13815/library/pkg/lock"
	"github.com/artem13815/library/pkg/repository/memory"
	pgrepo "github.com/artem13815/library/pkg/repository/postgres"
	"github.com/artem13815/library/pkg/security/jwt"
	"github.com/artem13815/library/pkg/storage/postgres"
)

// stores bundles the repositories of the selected backend.
type stores struct {
	users auth.UserRepository
	books interface {
		catalog.Repository
		lending.Inventory
	}
	loans lending.LoanRepository
}

func main() {
	// Load configuration from env/.env and the optional YAML file
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		st       stores
		checks   []health.Checker
		cleanups []func()
	)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	switch cfg.Store {
	case config.StoreMemory:
		db := memory.NewDB()
		st = stores{
			users: memory.NewUserRepository(db),
			books: memory.NewBookRepository(db),
			loans: memory.NewLoanRepository(db),
		}
		log.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		st = stores{
			users: pgrepo.NewUserRepository(pool),
			books: pgrepo.NewBookRepository(pool),
			loans: pgrepo.NewLoanRepository(pool),
		}
		checks = append(checks, checkers.NewPostgresChecker(pool))
	}

	var locker lock.Locker
	switch cfg.LockBackend {
	case config.LockLocal:
		locker = lock.NewLocal()
	case config.LockRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		cleanups = append(cleanups, func() { _ = client.Close() })
		locker = lock.NewRedis(client, "library:lock:", 0)
		checks = append(checks, checkers.NewRedisChecker(client))
	}

	// Wire dependencies (Clean Architecture)
	tokens := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer)
	verifier := jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	authUC := auth.NewAuthService(st.users, tokens, hasher, cfg.AccessTokenTTL(), log)
	gate := auth.NewGate(verifier, st.users, auth.ParseRolePolicy(cfg.RolePolicy))
	catalogUC := catalog.NewService(st.books, log)

	opts := []lending.Option{
		lending.WithMode(lending.ParseMode(cfg.LendingMode)),
		lending.WithLoanLimit(cfg.LoanLimit),
		lending.WithLimitScope(lending.ParseLimitScope(cfg.LoanLimitScope)),
		lending.WithRecommendLimit(cfg.RecommendLimit),
		lending.WithLogger(log),
	}
	if locker != nil {
		opts = append(opts, lending.WithLocker(locker))
	}
	engine := lending.NewEngine(st.books, st.loans, opts...)

	app := fiber.New(fiber.Config{AppName: "library-service"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientOrigin,
		AllowCredentials: cfg.ClientOrigin != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// Register routes
	apihttp.Register(app, apihttp.Handlers{
		Auth:      handlers.NewAuthHandler(authUC),
		Health:    handlers.NewHealthHandler(health.NewService(checks...)),
		BookAdmin: handlers.NewBookAdminHandler(catalogUC),
		BookUser:  handlers.NewBookUserHandler(catalogUC, engine),
	}, gate)

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("HTTP server listening",
		"port", cfg.Port,
		"store", cfg.Store,
		"lending_mode", engine.Mode().String(),
		"lock_backend", cfg.LockBackend,
	)
	return app.Listen(":" + cfg.Port)
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
