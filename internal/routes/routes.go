package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ticketbay/ticketbay/internal/auth"
	"github.com/ticketbay/ticketbay/internal/config"
	"github.com/ticketbay/ticketbay/internal/identity"
	"github.com/ticketbay/ticketbay/internal/kvstore"
	"github.com/ticketbay/ticketbay/internal/ledger"
	"github.com/ticketbay/ticketbay/internal/middleware"
	"github.com/ticketbay/ticketbay/internal/notification"
	"github.com/ticketbay/ticketbay/internal/otp"
	"github.com/ticketbay/ticketbay/internal/trade"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Durable storage is mandatory outside of dev.
	if !d.Cfg.IsDev() && d.DB == nil && d.Cache == nil {
		return fmt.Errorf("a durable store is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Pick the record store: Postgres when available, Redis next, memory for dev.
	var store kvstore.Store
	switch {
	case d.DB != nil:
		var err error
		store, err = kvstore.NewPostgres(context.Background(), d.DB)
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
	case d.Cache != nil:
		store = kvstore.NewRedis(d.Cache)
	default:
		store = kvstore.NewMemory()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)

	identitySvc := identity.NewService(identity.NewKVRepository(store))
	tokenSvc := auth.NewService(d.Cfg)
	walletSvc := ledger.NewService(ledger.NewKVRepository(store), d.Cfg.DefaultCurrency)
	otpSvc := otp.NewService(otp.NewKVRepository(store), notifier, otp.Options{
		CodeLength:  d.Cfg.OTPCodeLength,
		TTL:         d.Cfg.OTPCodeTTL,
		MaxAttempts: d.Cfg.OTPMaxAttempts,
	})
	tradeSvc := trade.NewService(trade.NewKVRepository(store), walletSvc, notifier)

	authHandler := auth.NewHandler(identitySvc, tokenSvc, walletSvc)
	walletHandler := ledger.NewHandler(walletSvc)
	otpHandler := otp.NewHandler(otpSvc, identitySvc)
	tradeHandler := trade.NewHandler(tradeSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, authHandler)

	jwtmw := middleware.JWTGuard(tokenSvc)
	protected := api.Group("", jwtmw)
	protected.Get("/me", authHandler.Me)

	RegisterWalletRoutes(protected, walletHandler)
	sendLimiter := middleware.CodeSendRateLimit(d.Cache, d.Cfg.OTPSendLimit)
	RegisterVerificationRoutes(protected, otpHandler, sendLimiter)
	RegisterTradeRoutes(protected, tradeHandler)

	return nil
}
