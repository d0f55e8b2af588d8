package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketbay/ticketbay/internal/ledger"
	"github.com/ticketbay/ticketbay/internal/locks"
	"github.com/ticketbay/ticketbay/internal/money"
	"github.com/ticketbay/ticketbay/internal/notification"
)

var (
	// ErrNotFound is returned when a trade id is unknown.
	ErrNotFound = errors.New("trade not found")
	// ErrNotOpen is returned when completing or cancelling a trade that
	// already left the open state.
	ErrNotOpen = errors.New("trade is not open")
	// ErrSelfTrade is returned when buyer and seller are the same user.
	ErrSelfTrade = errors.New("buyer and seller must differ")
)

// Service orchestrates the escrow lifecycle of a ticket sale. It never moves
// money itself; every balance change goes through the ledger, with the trade
// id as the transaction reference so a crashed retry is rejected as a
// duplicate instead of double-moving funds.
type Service struct {
	repo     Repository
	wallets  *ledger.Service
	notifier notification.Notifier
	locks    *locks.Keyed
}

// NewService builds the trade service.
func NewService(repo Repository, wallets *ledger.Service, notifier notification.Notifier) *Service {
	return &Service{
		repo:     repo,
		wallets:  wallets,
		notifier: notifier,
		locks:    locks.NewKeyed(),
	}
}

// OpenParams carries everything needed to open a trade.
type OpenParams struct {
	ListingID string
	BuyerID   string
	SellerID  string
	Amount    money.Amount
}

// Open records a sale whose payment was captured and places the proceeds in
// the seller's escrow.
func (s *Service) Open(ctx context.Context, p OpenParams) (Trade, error) {
	if p.BuyerID == p.SellerID {
		return Trade{}, ErrSelfTrade
	}
	if err := p.Amount.Validate(); err != nil {
		return Trade{}, err
	}

	now := time.Now().UTC()
	t := Trade{
		ID:        uuid.NewString(),
		ListingID: p.ListingID,
		BuyerID:   p.BuyerID,
		SellerID:  p.SellerID,
		Amount:    p.Amount.Value,
		Currency:  p.Amount.Currency,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.wallets.Hold(ctx, t.SellerID, p.Amount, t.ID, "sale of listing "+t.ListingID); err != nil {
		return Trade{}, fmt.Errorf("hold escrow: %w", err)
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return Trade{}, err
	}

	s.notify(ctx, notification.KindEscrowHeld, t.SellerID,
		fmt.Sprintf("%d %s held in escrow for trade %s", t.Amount, t.Currency, t.ID))
	return t, nil
}

// Complete releases the escrowed proceeds to the seller.
func (s *Service) Complete(ctx context.Context, id string) (Trade, error) {
	return s.transition(ctx, id, StatusCompleted, func(ctx context.Context, t Trade) error {
		amount := money.Amount{Value: t.Amount, Currency: t.Currency}
		_, err := s.wallets.Release(ctx, t.SellerID, amount, t.ID, "trade completed")
		return err
	})
}

// Cancel voids an open trade. The seller's escrow is drained and the buyer is
// refunded through the payment channel, which this service only signals.
func (s *Service) Cancel(ctx context.Context, id string) (Trade, error) {
	return s.transition(ctx, id, StatusCancelled, func(ctx context.Context, t Trade) error {
		amount := money.Amount{Value: t.Amount, Currency: t.Currency}
		_, err := s.wallets.RefundHeld(ctx, t.SellerID, amount, t.ID, "trade cancelled")
		return err
	})
}

// Get returns one trade by id.
func (s *Service) Get(ctx context.Context, id string) (Trade, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Trade{}, ErrNotFound
	}
	return t, nil
}

// ListByUser returns all trades involving the user, as buyer or seller.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Trade, error) {
	return s.repo.ListByUser(ctx, userID)
}

// transition serializes status changes per trade: only open trades move, and
// the ledger movement happens before the new status is persisted.
func (s *Service) transition(ctx context.Context, id string, to Status, move func(context.Context, Trade) error) (Trade, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Trade{}, ErrNotFound
	}
	if t.Status != StatusOpen {
		return Trade{}, fmt.Errorf("%w: %s is %s", ErrNotOpen, t.ID, t.Status)
	}

	if err := move(ctx, t); err != nil {
		return Trade{}, err
	}

	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, t); err != nil {
		return Trade{}, err
	}

	switch to {
	case StatusCompleted:
		s.notify(ctx, notification.KindEscrowReleased, t.SellerID,
			fmt.Sprintf("%d %s released from escrow for trade %s", t.Amount, t.Currency, t.ID))
	case StatusCancelled:
		s.notify(ctx, notification.KindEscrowRefunded, t.BuyerID,
			fmt.Sprintf("trade %s was cancelled, %d %s will be refunded", t.ID, t.Amount, t.Currency))
	}
	return t, nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	// Delivery is best effort and must not fail the trade.
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body})
}
