package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mini-wallet/mini_wallet/internal/auth"
	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/middleware"
	"github.com/mini-wallet/mini_wallet/internal/notification"
	"github.com/mini-wallet/mini_wallet/internal/otp"
	"github.com/mini-wallet/mini_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in development; memory backends are substituted.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !config.IsDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo, identity.StaticBVNProvider{})

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}
	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(walletRepo, identityRepo, notifier)

	var otpStore otp.Store
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore()
	}
	otpSvc := otp.NewService(otpStore, notifier, d.Cfg.OTPTTL, d.Cfg.OTPResendCooldown)

	authSvc := auth.NewService(d.Cfg, identitySvc, otpSvc)
	authHandler := auth.NewHandler(authSvc, identitySvc, walletSvc)
	walletHandler := wallet.NewHandler(walletSvc, identitySvc)

	app.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(app, authHandler, rateLimiter)

	// Protected routes
	bearer := middleware.BearerAuth(d.Cfg, identityRepo)
	protected := app.Group("", bearer)
	protected.Post("/auth/verify-bvn", authHandler.VerifyBVN)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, walletHandler)

	return nil
}
