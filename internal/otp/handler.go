package otp

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/identity"
)

// Handler exposes verification endpoints. Successful verifications are
// reflected onto the user's identity record.
type Handler struct {
	service  *Service
	identity *identity.Service
}

// NewHandler builds a verification HTTP handler.
func NewHandler(service *Service, identitySvc *identity.Service) *Handler {
	return &Handler{service: service, identity: identitySvc}
}

type sendRequest struct {
	Purpose string `json:"purpose"`
}

type verifyRequest struct {
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

// Send issues a fresh verification code for the authenticated user.
func (h *Handler) Send(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	expiresAt, err := h.service.Send(c.UserContext(), userID, Purpose(req.Purpose))
	if err != nil {
		if errors.Is(err, ErrUnknownPurpose) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"expires_at": expiresAt.Format(time.RFC3339Nano),
	})
}

// Verify checks a submitted code and marks the verified channel on success.
func (h *Handler) Verify(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	purpose := Purpose(req.Purpose)
	if err := h.service.Verify(c.UserContext(), userID, purpose, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrUnknownPurpose):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNoPendingCode):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrCodeExpired):
			return fiber.NewError(http.StatusGone, err.Error())
		case errors.Is(err, ErrCodeMismatch):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrTooManyAttempts):
			return fiber.NewError(http.StatusTooManyRequests, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	if h.identity != nil {
		var err error
		switch purpose {
		case PurposeEmailVerification:
			err = h.identity.MarkEmailVerified(c.UserContext(), userID)
		case PurposePhoneVerification:
			err = h.identity.MarkPhoneVerified(c.UserContext(), userID)
		}
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"verified": true})
}

// Status reports whether a live code exists for the given purpose.
func (h *Handler) Status(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	pending, err := h.service.HasPending(c.UserContext(), userID, Purpose(c.Query("purpose")))
	if err != nil {
		if errors.Is(err, ErrUnknownPurpose) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"pending": pending})
}
