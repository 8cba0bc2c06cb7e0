package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/eliasdev/kipu-bank/internal/core/domain"
	"github.com/eliasdev/kipu-bank/internal/core/ledger"
)

// ChargeHandler is the funding rail: a card charge settles value into an
// account's external wallet. Wallet value is what a later vault deposit
// attaches; a charge alone never touches vault balances.
type ChargeHandler struct {
	Runtime *ledger.InProc
}

type ChargeRequest struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"` // MM/YY
	CVC        string `json:"cvc"`
	Amount     uint64 `json:"amount"` // units
	AccountID  string `json:"account_id"`
}

func (h *ChargeHandler) MakeCharge(c *fiber.Ctx) error {
	var req ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	// 1. Validate card
	isValid, brand := domain.ValidateCard(req.CardNumber)
	if !isValid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card. We only accept Visa and Mastercard.",
		})
	}

	// 2. Validate expiry/CVC (simplified)
	if len(req.CVC) < 3 || len(req.Expiry) != 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid CVC or expiry"})
	}

	// 3. Settle the charge into the wallet
	accountUUID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account ID"})
	}

	if err := h.Runtime.Mint(accountUUID, req.Amount); err != nil {
		slog.Error("❌ Charge settlement failed", "error", err, "account_id", accountUUID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Charge processing failed"})
	}

	slog.Info("💳 Charge settled", "account_id", accountUUID, "amount", req.Amount, "brand", brand)

	// 4. Return success
	return c.JSON(fiber.Map{
		"status":         "success",
		"brand":          brand,
		"amount_charged": req.Amount,
		"wallet_balance": h.Runtime.Wallet(accountUUID),
	})
}
