package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/eliasdev/kipu-bank/internal/adapter/storage"
	"github.com/eliasdev/kipu-bank/internal/core/ledger"
	"github.com/eliasdev/kipu-bank/internal/core/vault"
)

// VaultHandler exposes the four vault operations over HTTP. Journal and
// Accounts are optional: without a database the vault still works, it just
// loses the durable trail and webhook notifications.
type VaultHandler struct {
	Vault    *vault.Vault
	Journal  *storage.JournalRepository
	Accounts *storage.AccountRepository
}

type MoveRequest struct {
	Amount uint64 `json:"amount"` // units
}

// vaultError maps each sentinel to a distinct status and stable code, so
// clients branch on cause instead of parsing messages.
func vaultError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, vault.ErrCapacityExceeded):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Deposit would exceed the bank capacity", "code": "capacity_exceeded"})
	case errors.Is(err, vault.ErrThresholdExceeded):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Withdrawal exceeds the per-call threshold", "code": "threshold_exceeded"})
	case errors.Is(err, vault.ErrInsufficientBalance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Insufficient balance", "code": "insufficient_balance"})
	case errors.Is(err, vault.ErrTransferFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Outbound transfer failed, withdrawal rolled back", "code": "transfer_failed"})
	case errors.Is(err, ledger.ErrInsufficientAttachedValue):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Wallet holds less than the attached value", "code": "insufficient_attached_value"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Vault operation failed", "code": "internal"})
	}
}

// caller pulls the authenticated account out of the request context.
func caller(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("account_id").(uuid.UUID)
	return id, ok
}

func (h *VaultHandler) Deposit(c *fiber.Ctx) error {
	// 1. Who is calling?
	accountID, ok := caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing caller identity"})
	}

	// 2. Parse body
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	// 3. Run the deposit
	ev, err := h.Vault.Deposit(accountID, req.Amount)
	if err != nil {
		slog.Warn("Deposit rejected", "account_id", accountID, "amount", req.Amount, "error", err)
		return vaultError(c, err)
	}

	slog.Info("💰 Deposit accepted", "account_id", accountID, "amount", req.Amount)
	h.recordEvent(c, ev)

	// 4. Return the new position
	return c.JSON(fiber.Map{
		"status":          "success",
		"event_id":        ev.ID,
		"balance":         h.Vault.Balance(accountID),
		"total_deposited": h.Vault.TotalDeposited(),
	})
}

func (h *VaultHandler) Withdraw(c *fiber.Ctx) error {
	// 1. Who is calling?
	accountID, ok := caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing caller identity"})
	}

	// 2. Parse body
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	// 3. Run the withdrawal
	ev, err := h.Vault.Withdraw(accountID, req.Amount)
	if err != nil {
		slog.Warn("Withdrawal rejected", "account_id", accountID, "amount", req.Amount, "error", err)
		return vaultError(c, err)
	}

	slog.Info("🏧 Withdrawal paid out", "account_id", accountID, "amount", req.Amount)
	h.recordEvent(c, ev)

	// 4. Return the new position
	return c.JSON(fiber.Map{
		"status":          "success",
		"event_id":        ev.ID,
		"balance":         h.Vault.Balance(accountID),
		"total_deposited": h.Vault.TotalDeposited(),
	})
}

// MyBalance reads the authenticated caller's balance.
func (h *VaultHandler) MyBalance(c *fiber.Ctx) error {
	accountID, ok := caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing caller identity"})
	}
	return c.JSON(fiber.Map{
		"account_id": accountID,
		"balance":    h.Vault.Balance(accountID),
	})
}

// AccountBalance is the public balance read; unknown accounts report zero.
func (h *VaultHandler) AccountBalance(c *fiber.Ctx) error {
	accountUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}
	return c.JSON(fiber.Map{
		"account_id": accountUUID,
		"balance":    h.Vault.Balance(accountUUID),
	})
}

// Holdings reports the custody total as the runtime observes it, next to the
// vault's own accounting. The two may diverge after a forced transfer.
func (h *VaultHandler) Holdings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"holdings":        h.Vault.Holdings(),
		"total_deposited": h.Vault.TotalDeposited(),
	})
}

func (h *VaultHandler) Stats(c *fiber.Ctx) error {
	deposits, withdrawals := h.Vault.Counts()
	return c.JSON(fiber.Map{
		"deposit_count":    deposits,
		"withdrawal_count": withdrawals,
	})
}

// Events streams the in-memory notification log in operation order.
func (h *VaultHandler) Events(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"events": h.Vault.Events()})
}

// AccountEvents reads one account's event history, served from the durable
// journal when a database is wired and from the in-memory log otherwise.
func (h *VaultHandler) AccountEvents(c *fiber.Ctx) error {
	accountUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	if h.Journal != nil {
		entries, err := h.Journal.ListEvents(c.Context(), accountUUID, 50)
		if err != nil {
			slog.Error("Failed to read event journal", "error", err, "account_id", accountUUID)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch events"})
		}
		return c.JSON(fiber.Map{"events": entries})
	}

	events := make([]vault.Event, 0)
	for _, ev := range h.Vault.Events() {
		if ev.Account == accountUUID {
			events = append(events, ev)
		}
	}
	return c.JSON(fiber.Map{"events": events})
}

// recordEvent journals the event and queues the depositor's webhook. Both are
// best-effort: the vault state already committed, so a journal failure only
// logs.
func (h *VaultHandler) recordEvent(c *fiber.Ctx, ev vault.Event) {
	if h.Journal == nil {
		return
	}
	if err := h.Journal.RecordEvent(c.Context(), ev); err != nil {
		slog.Error("Failed to journal vault event", "error", err, "event_id", ev.ID)
	}
	if h.Accounts == nil {
		return
	}
	acc, err := h.Accounts.GetAccountByID(c.Context(), ev.Account)
	if err != nil || acc.WebhookURL == "" {
		return
	}
	if err := h.Journal.EnqueueWebhook(c.Context(), acc.WebhookURL, ev); err != nil {
		slog.Error("Failed to queue event webhook", "error", err, "event_id", ev.ID)
	}
}
