package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketbay/ticketbay/internal/money"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type movementRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	Refund      bool   `json:"refund,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Balance returns the caller's wallet snapshot, creating it on first access.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	wallet, err := h.service.GetOrCreate(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":         wallet.UserID,
		"currency":        wallet.Currency,
		"balance":         wallet.Balance,
		"pending_balance": wallet.PendingBalance,
		"updated_at":      wallet.UpdatedAt,
	})
}

// Transactions returns the caller's transaction log, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	log, err := h.service.ListTransactions(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]transactionResponse, 0, len(log))
	for _, tx := range log {
		out = append(out, toTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

type movementFunc func(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error)

// Hold escrows captured funds on the target wallet.
func (h *Handler) Hold(c *fiber.Ctx) error {
	return h.movement(c, h.service.Hold)
}

// Release moves escrowed funds into the available balance.
func (h *Handler) Release(c *fiber.Ctx) error {
	return h.movement(c, h.service.Release)
}

// Refund returns escrowed funds to the payer outside this ledger.
func (h *Handler) Refund(c *fiber.Ctx) error {
	return h.movement(c, h.service.RefundHeld)
}

// Credit adds to the available balance.
func (h *Handler) Credit(c *fiber.Ctx) error {
	return h.movement(c, h.service.Credit)
}

// Debit removes from the available balance.
func (h *Handler) Debit(c *fiber.Ctx) error {
	return h.movement(c, h.service.Debit)
}

func (h *Handler) movement(c *fiber.Ctx, op movementFunc) error {
	userID := c.Params("userId")
	if userID == "" {
		return fiber.NewError(http.StatusBadRequest, "missing user id")
	}

	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.New(req.Amount, req.Currency)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := op(c.UserContext(), userID, amount, req.Reference, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrInsufficientPendingBalance):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrCurrencyMismatch):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateReference):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
}

func toTransactionResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Reference:   tx.Reference,
		Description: tx.Description,
		Refund:      tx.Refund,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339Nano),
	}
}
