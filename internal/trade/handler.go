package trade

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/ledger"
	"github.com/ticketbay/ticketbay/internal/money"
)

// Handler exposes the trade lifecycle over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds the trade handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type openRequest struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// Open creates a trade with the authenticated user as buyer.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	buyerID, _ := c.Locals("user_id").(string)

	amount, err := money.New(req.Amount, req.Currency)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	t, err := h.service.Open(c.UserContext(), OpenParams{
		ListingID: req.ListingID,
		BuyerID:   buyerID,
		SellerID:  req.SellerID,
		Amount:    amount,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(t)
}

// Complete releases the escrow of an open trade.
func (h *Handler) Complete(c *fiber.Ctx) error {
	t, err := h.service.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// Cancel voids an open trade and refunds its escrow.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	t, err := h.service.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// Get returns one trade.
func (h *Handler) Get(c *fiber.Ctx) error {
	t, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// List returns the authenticated user's trades.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	trades, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"trades": trades})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOpen):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSelfTrade):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrDuplicateReference):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrCurrencyMismatch):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientPendingBalance):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, money.ErrNegativeAmount), errors.Is(err, money.ErrNoCurrency):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
