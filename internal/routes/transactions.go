package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/wallet"
)

// RegisterTransactionRoutes wires the statement endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/transactions", h.Transactions)
	r.Get("/transactions/all", h.AllTransactions)
}
