package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/eliasdev/kipu-bank/internal/adapter/handler"
	"github.com/eliasdev/kipu-bank/internal/adapter/middleware"
	"github.com/eliasdev/kipu-bank/internal/adapter/storage"
	"github.com/eliasdev/kipu-bank/internal/core/config"
	"github.com/eliasdev/kipu-bank/internal/core/ledger"
	"github.com/eliasdev/kipu-bank/internal/core/vault"
	"github.com/eliasdev/kipu-bank/internal/core/worker"
)

func main() {
	// 1. Load config
	cfg := config.LoadConfig()

	// 2. Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Connect to database (registry, journal, job queue)
	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("❌ Database connection failed", "error", err)
		os.Exit(1)
	}

	// 4. Build the runtime and the vault
	runtime := ledger.NewInProc()
	vlt, err := vault.New(vault.Config{
		WithdrawalThreshold: cfg.WithdrawalThreshold,
		BankCap:             cfg.BankCap,
	}, runtime)
	if err != nil {
		slog.Error("❌ Invalid vault configuration", "error", err)
		os.Exit(1)
	}

	// 5. Repos & handlers
	accountRepo := storage.NewAccountRepository(dbPool)
	journalRepo := storage.NewJournalRepository(dbPool)

	accountHandler := &handler.AccountHandler{Repo: accountRepo}
	chargeHandler := &handler.ChargeHandler{Runtime: runtime}
	vaultHandler := &handler.VaultHandler{Vault: vlt, Journal: journalRepo, Accounts: accountRepo}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	// 7. Routes
	api := app.Group("/v1")

	// Public
	api.Post("/accounts", accountHandler.CreateAccount)
	api.Post("/accounts/:id/keys", accountHandler.GenerateKey)
	api.Post("/charges", chargeHandler.MakeCharge)
	api.Get("/accounts/:id/balance", vaultHandler.AccountBalance)
	api.Get("/accounts/:id/events", vaultHandler.AccountEvents)
	api.Get("/vault/holdings", vaultHandler.Holdings)
	api.Get("/vault/stats", vaultHandler.Stats)
	api.Get("/vault/events", vaultHandler.Events)

	// Protected: the API key decides whose balance moves
	private := api.Use(middleware.Protected(dbPool))
	private.Post("/vault/deposit", middleware.Idempotency(dbPool), vaultHandler.Deposit)
	private.Post("/vault/withdraw", middleware.Idempotency(dbPool), vaultHandler.Withdraw)
	private.Get("/vault/balance", vaultHandler.MyBalance)

	// 8. Start worker
	worker.StartEventWorker(dbPool)

	// Graceful shutdown: finish in-flight calls, then close the pool.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting",
			"env", cfg.Env,
			"port", cfg.Port,
			"bank_cap", cfg.BankCap,
			"withdrawal_threshold", cfg.WithdrawalThreshold,
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	dbPool.Close()
	slog.Info("✅ Database connection closed")

	slog.Info("👋 Server exited successfully")
}
