package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/ledger"
)

// RegisterWalletRoutes wires the caller-facing wallet endpoints plus the
// balance-movement endpoints used by back-office tooling.
func RegisterWalletRoutes(r fiber.Router, h *ledger.Handler) {
	r.Get("/wallet", h.Balance)
	r.Get("/wallet/transactions", h.Transactions)

	r.Post("/wallets/:userId/hold", h.Hold)
	r.Post("/wallets/:userId/release", h.Release)
	r.Post("/wallets/:userId/refund", h.Refund)
	r.Post("/wallets/:userId/credit", h.Credit)
	r.Post("/wallets/:userId/debit", h.Debit)
}
