package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/trade"
)

// RegisterTradeRoutes wires the escrowed trade lifecycle endpoints.
func RegisterTradeRoutes(r fiber.Router, h *trade.Handler) {
	group := r.Group("/trades")
	group.Post("", h.Open)
	group.Get("", h.List)
	group.Get("/:id", h.Get)
	group.Post("/:id/complete", h.Complete)
	group.Post("/:id/cancel", h.Cancel)
}
