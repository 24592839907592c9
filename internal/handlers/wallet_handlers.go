package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mealtrail/subscription-service/internal/app/subscription/contracts"
)

// WalletHandler exposes read-only wallet queries for the portal. The mutation
// paths never go through HTTP; only the sagas adjust balances.
type WalletHandler struct {
	ledger contracts.WalletLedger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledger contracts.WalletLedger) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// GetBalance handles GET /api/wallets/:customerId
func (h *WalletHandler) GetBalance(c echo.Context) error {
	customerID := c.Param("customerId")
	balance, err := h.ledger.Balance(c.Request().Context(), customerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customerId": customerID,
		"balance":    balance,
	})
}
