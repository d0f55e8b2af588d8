package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/ticketbay/ticketbay/internal/kvstore"
	"github.com/ticketbay/ticketbay/internal/ledger"
	"github.com/ticketbay/ticketbay/internal/money"
	"github.com/ticketbay/ticketbay/internal/notification"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.messages = append(n.messages, m)
	return nil
}

func newTestService() (*Service, *ledger.Service, *recordingNotifier) {
	store := kvstore.NewMemory()
	wallets := ledger.NewService(ledger.NewKVRepository(store), "EUR")
	notifier := &recordingNotifier{}
	return NewService(NewKVRepository(store), wallets, notifier), wallets, notifier
}

func eur(t *testing.T, value int64) money.Amount {
	t.Helper()
	amount, err := money.New(value, "EUR")
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return amount
}

func TestOpenHoldsSellerEscrow(t *testing.T) {
	svc, wallets, notifier := newTestService()
	ctx := context.Background()

	tr, err := svc.Open(ctx, OpenParams{ListingID: "listing-1", BuyerID: "buyer", SellerID: "seller", Amount: eur(t, 2500)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tr.Status != StatusOpen {
		t.Fatalf("expected open, got %s", tr.Status)
	}

	w, err := wallets.GetOrCreate(ctx, "seller")
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if w.PendingBalance != 2500 || w.Balance != 0 {
		t.Fatalf("expected 0/2500, got %d/%d", w.Balance, w.PendingBalance)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindEscrowHeld {
		t.Fatalf("expected one escrow_held notification, got %+v", notifier.messages)
	}
}

func TestCompleteReleasesEscrow(t *testing.T) {
	svc, wallets, notifier := newTestService()
	ctx := context.Background()

	tr, err := svc.Open(ctx, OpenParams{ListingID: "listing-1", BuyerID: "buyer", SellerID: "seller", Amount: eur(t, 2500)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	done, err := svc.Complete(ctx, tr.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	w, _ := wallets.GetOrCreate(ctx, "seller")
	if w.Balance != 2500 || w.PendingBalance != 0 {
		t.Fatalf("expected 2500/0, got %d/%d", w.Balance, w.PendingBalance)
	}

	last := notifier.messages[len(notifier.messages)-1]
	if last.Kind != notification.KindEscrowReleased || last.Destination != "seller" {
		t.Fatalf("expected escrow_released to seller, got %+v", last)
	}
}

func TestCancelRefundsEscrow(t *testing.T) {
	svc, wallets, notifier := newTestService()
	ctx := context.Background()

	tr, err := svc.Open(ctx, OpenParams{ListingID: "listing-1", BuyerID: "buyer", SellerID: "seller", Amount: eur(t, 2500)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, tr.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	w, _ := wallets.GetOrCreate(ctx, "seller")
	if w.Balance != 0 || w.PendingBalance != 0 {
		t.Fatalf("expected 0/0, got %d/%d", w.Balance, w.PendingBalance)
	}

	last := notifier.messages[len(notifier.messages)-1]
	if last.Kind != notification.KindEscrowRefunded || last.Destination != "buyer" {
		t.Fatalf("expected escrow_refunded to buyer, got %+v", last)
	}
}

func TestTransitionsRequireOpenTrade(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tr, err := svc.Open(ctx, OpenParams{ListingID: "listing-1", BuyerID: "buyer", SellerID: "seller", Amount: eur(t, 100)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Complete(ctx, tr.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.Complete(ctx, tr.ID); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen on double complete, got %v", err)
	}
	if _, err := svc.Cancel(ctx, tr.ID); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen on cancel after complete, got %v", err)
	}
}

func TestOpenRejectsSelfTrade(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Open(context.Background(), OpenParams{ListingID: "l", BuyerID: "u", SellerID: "u", Amount: eur(t, 100)})
	if !errors.Is(err, ErrSelfTrade) {
		t.Fatalf("expected ErrSelfTrade, got %v", err)
	}
}

func TestUnknownTrade(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Complete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Open(ctx, OpenParams{ListingID: "l1", BuyerID: "alice", SellerID: "bob", Amount: eur(t, 100)}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Open(ctx, OpenParams{ListingID: "l2", BuyerID: "bob", SellerID: "carol", Amount: eur(t, 200)}); err != nil {
		t.Fatalf("open: %v", err)
	}

	trades, err := svc.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected bob in 2 trades, got %d", len(trades))
	}

	trades, err = svc.ListByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected alice in 1 trade, got %d", len(trades))
	}
}
