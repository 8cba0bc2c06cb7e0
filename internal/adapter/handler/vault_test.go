package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdev/kipu-bank/internal/adapter/handler"
	"github.com/eliasdev/kipu-bank/internal/core/ledger"
	"github.com/eliasdev/kipu-bank/internal/core/vault"
)

// newTestApp wires the vault routes with a stub auth middleware that pins the
// caller identity, standing in for the API-key lookup.
func newTestApp(t *testing.T, threshold, cap uint64, caller uuid.UUID) (*fiber.App, *ledger.InProc) {
	t.Helper()

	rt := ledger.NewInProc()
	v, err := vault.New(vault.Config{WithdrawalThreshold: threshold, BankCap: cap}, rt)
	require.NoError(t, err)

	h := &handler.VaultHandler{Vault: v}
	ch := &handler.ChargeHandler{Runtime: rt}

	app := fiber.New()
	api := app.Group("/v1")

	api.Post("/charges", ch.MakeCharge)
	api.Get("/accounts/:id/balance", h.AccountBalance)
	api.Get("/accounts/:id/events", h.AccountEvents)
	api.Get("/vault/holdings", h.Holdings)
	api.Get("/vault/stats", h.Stats)
	api.Get("/vault/events", h.Events)

	private := api.Use(func(c *fiber.Ctx) error {
		c.Locals("account_id", caller)
		return c.Next()
	})
	private.Post("/vault/deposit", h.Deposit)
	private.Post("/vault/withdraw", h.Withdraw)
	private.Get("/vault/balance", h.MyBalance)

	return app, rt
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	return resp, out
}

func TestDepositAndWithdrawOverHTTP(t *testing.T) {
	caller := uuid.New()
	app, rt := newTestApp(t, 100, 1000, caller)
	require.NoError(t, rt.Mint(caller, 1000))

	resp, body := doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(500), body["balance"])
	assert.Equal(t, float64(500), body["total_deposited"])

	resp, body = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(450), body["balance"])

	resp, body = doJSON(t, app, "GET", "/v1/vault/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(450), body["balance"])

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/v1/accounts/%s/balance", caller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(450), body["balance"])
}

func TestErrorCodesAreDistinguishable(t *testing.T) {
	caller := uuid.New()
	app, rt := newTestApp(t, 100, 1000, caller)
	require.NoError(t, rt.Mint(caller, 5000))

	// Capacity exceeded.
	resp, body := doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 1001})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "capacity_exceeded", body["code"])

	_, _ = doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 500})

	// Threshold exceeded.
	resp, body = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 101})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "threshold_exceeded", body["code"])

	// Insufficient balance: below threshold but above what the caller holds.
	_, _ = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 100})
	for i := 0; i < 4; i++ {
		_, _ = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 100})
	}
	resp, body = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "insufficient_balance", body["code"])

	// No attached value left in the wallet.
	resp, body = doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 90_000})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "insufficient_attached_value", body["code"])
}

func TestHoldingsAndStatsEndpoints(t *testing.T) {
	caller := uuid.New()
	app, rt := newTestApp(t, 100, 1000, caller)
	require.NoError(t, rt.Mint(caller, 1000))

	_, _ = doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 300})
	_, _ = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 40})
	require.NoError(t, rt.ForceDeliver(15))

	resp, body := doJSON(t, app, "GET", "/v1/vault/holdings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(275), body["holdings"])
	assert.Equal(t, float64(260), body["total_deposited"])

	resp, body = doJSON(t, app, "GET", "/v1/vault/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["deposit_count"])
	assert.Equal(t, float64(1), body["withdrawal_count"])

	resp, body = doJSON(t, app, "GET", "/v1/vault/events", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events, ok := body["events"].([]interface{})
	require.True(t, ok)
	assert.Len(t, events, 2)
}

func TestAccountEventsEndpoint(t *testing.T) {
	caller := uuid.New()
	app, rt := newTestApp(t, 100, 1000, caller)
	require.NoError(t, rt.Mint(caller, 1000))

	_, _ = doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 300})
	_, _ = doJSON(t, app, "POST", "/v1/vault/withdraw", fiber.Map{"amount": 40})

	// Another account's history must not leak into the caller's view.
	resp, body := doJSON(t, app, "GET", fmt.Sprintf("/v1/accounts/%s/events", caller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events, ok := body["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, events, 2)

	first, ok := events[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DEPOSITED", first["kind"])
	assert.Equal(t, caller.String(), first["account_id"])

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/v1/accounts/%s/events", uuid.New()), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events, ok = body["events"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, events)

	resp, _ = doJSON(t, app, "GET", "/v1/accounts/not-a-uuid/events", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChargeFundsTheWallet(t *testing.T) {
	caller := uuid.New()
	app, rt := newTestApp(t, 100, 1000, caller)

	resp, body := doJSON(t, app, "POST", "/v1/charges", fiber.Map{
		"card_number": "4111111111111111",
		"expiry":      "12/30",
		"cvc":         "123",
		"amount":      800,
		"account_id":  caller.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "VISA", body["brand"])
	assert.Equal(t, uint64(800), rt.Wallet(caller))

	// The charge settled the wallet; a deposit can now attach that value.
	resp, _ = doJSON(t, app, "POST", "/v1/vault/deposit", fiber.Map{"amount": 800})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(0), rt.Wallet(caller))
}

func TestChargeRejectsBadCards(t *testing.T) {
	caller := uuid.New()
	app, _ := newTestApp(t, 100, 1000, caller)

	resp, _ := doJSON(t, app, "POST", "/v1/charges", fiber.Map{
		"card_number": "378282246310005", // amex
		"expiry":      "12/30",
		"cvc":         "123",
		"amount":      800,
		"account_id":  caller.String(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
