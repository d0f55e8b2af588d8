package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/otp"
)

// RegisterVerificationRoutes wires one-time code endpoints.
func RegisterVerificationRoutes(r fiber.Router, h *otp.Handler, sendLimiter fiber.Handler) {
	group := r.Group("/verification")
	if sendLimiter != nil {
		group.Post("/send", sendLimiter, h.Send)
	} else {
		group.Post("/send", h.Send)
	}
	group.Post("/verify", h.Verify)
	group.Get("/status", h.Status)
}
