package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	group := r.Group("/wallet")
	group.Get("/", h.Overview)
	group.Get("/balance", h.Balance)
	group.Get("/pin-status", h.PinStatus)
	group.Post("/deposit", h.Deposit)
	group.Post("/transfer", h.Transfer)
	group.Post("/verify-pin", h.VerifyPIN)
	group.Post("/update-pin", h.UpdatePIN)
}
