// Package routes wires repositories, providers, services and handlers
// into the fiber app's routing table.
package routes

import (
	"time"

	"kudipay/internal/config"
	"kudipay/internal/handlers"
	"kudipay/internal/middleware"
	"kudipay/internal/providers/paystack"
	"kudipay/internal/providers/vtpass"
	"kudipay/internal/repositories"
	"kudipay/internal/repositories/cache"
	"kudipay/internal/services/auth"
	"kudipay/internal/services/referral"
	"kudipay/internal/services/settlement"
	"kudipay/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// App holds the long-lived pieces background jobs need after routing is
// set up.
type App struct {
	Ledger     repositories.LedgerRepository
	Settlement settlement.Service
}

// SetupRoutes builds the full dependency graph and registers every route.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheSvc *cache.Service) *App {
	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(db)
	userRepo := repositories.NewUserRepository(db, cacheSvc)
	referralRepo := repositories.NewReferralRepository(db)

	// External providers
	gateway := paystack.NewClient(
		config.GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		config.GetEnv("PAYSTACK_SECRET_KEY", ""),
		config.GetDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
	)
	fulfiller := vtpass.NewClient(
		config.GetEnv("VTPASS_BASE_URL", "https://vtpass.com/api"),
		config.GetEnv("VTPASS_API_KEY", ""),
		config.GetEnv("VTPASS_SECRET_KEY", ""),
		config.GetDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
	)

	// Services
	rewardAmount := config.GetFloatEnv("REFERRAL_REWARD", referral.DefaultRewardAmount)
	authService := auth.NewService(userRepo, referralRepo, config.GetEnv("JWT_SECRET", "kudipay-dev"), rewardAmount)

	var balanceCache settlement.BalanceCache
	if cacheSvc != nil {
		balanceCache = cacheSvc
	}
	engine := settlement.NewService(
		ledgerRepo,
		userRepo,
		gateway,
		fulfiller,
		balanceCache,
		settlement.Config{
			FulfillmentTimeout: config.GetDurationEnv("PROVIDER_TIMEOUT", settlement.DefaultFulfillmentTimeout),
			CallbackURL:        config.GetEnv("FUNDING_CALLBACK_URL", ""),
		},
		nil,
	)

	var invalidator transfer.Invalidator
	if cacheSvc != nil {
		invalidator = cacheSvc
	}
	transferService := transfer.NewService(ledgerRepo, userRepo, invalidator)
	referralService := referral.NewService(userRepo, referralRepo, engine, rewardAmount)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(engine)
	purchaseHandler := handlers.NewPurchaseHandler(engine)
	transactionHandler := handlers.NewTransactionHandler(ledgerRepo, engine)
	transferHandler := handlers.NewTransferHandler(transferService)
	referralHandler := handlers.NewReferralHandler(referralService)
	webhookHandler := handlers.NewWebhookHandler(gateway, engine)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/webhooks/paystack", webhookHandler.HandlePaystack)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to KudiPay API",
			"version": "1.0.0",
		})
	})

	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)

	wallet := protected.Group("/wallet")
	wallet.Get("/balance", walletHandler.GetBalance)
	wallet.Post("/fund", walletHandler.FundWallet)
	wallet.Get("/fund/verify/:reference", walletHandler.VerifyFunding)

	purchase := protected.Group("/purchase")
	purchase.Post("/airtime", purchaseHandler.BuyAirtime)
	purchase.Post("/data", purchaseHandler.BuyData)
	purchase.Post("/bill", purchaseHandler.PayBill)

	transactions := protected.Group("/transactions")
	transactions.Get("/", transactionHandler.List)
	transactions.Get("/stats", transactionHandler.GetStats)
	transactions.Get("/:id", transactionHandler.GetByID)
	transactions.Post("/:reference/requery", transactionHandler.Requery)

	transfers := protected.Group("/transfer")
	transfers.Post("/", transferHandler.Transfer)
	transfers.Post("/validate", transferHandler.ValidateRecipient)

	protected.Post("/referrals/process", referralHandler.ClaimReward)

	return &App{Ledger: ledgerRepo, Settlement: engine}
}
