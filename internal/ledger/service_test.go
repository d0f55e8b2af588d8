package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ticketbay/ticketbay/internal/kvstore"
	"github.com/ticketbay/ticketbay/internal/money"
)

func newTestService() *Service {
	return NewService(NewKVRepository(kvstore.NewMemory()), "EUR")
}

func eur(t *testing.T, value int64) money.Amount {
	t.Helper()
	a, err := money.New(value, "EUR")
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return a
}

func mustWallet(t *testing.T, svc *Service, userID string) Wallet {
	t.Helper()
	w, err := svc.GetOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	w1, err := svc.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("first getOrCreate: %v", err)
	}
	if w1.Balance != 0 || w1.PendingBalance != 0 || w1.Currency != "EUR" {
		t.Fatalf("unexpected fresh wallet %+v", w1)
	}

	if _, err := svc.Credit(ctx, "alice", eur(t, 300), "b1", "signup bonus"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	w2, err := svc.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("second getOrCreate: %v", err)
	}
	if w2.Balance != 300 {
		t.Fatalf("getOrCreate must not reset balances, got %d", w2.Balance)
	}
}

func TestHoldThenReleaseCreditsBalance(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Hold(ctx, "seller", eur(t, 1000), "trade-1", "ticket sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	w := mustWallet(t, svc, "seller")
	if w.PendingBalance != 1000 || w.Balance != 0 {
		t.Fatalf("after hold: %+v", w)
	}

	if _, err := svc.Release(ctx, "seller", eur(t, 1000), "trade-1", "trade complete"); err != nil {
		t.Fatalf("release: %v", err)
	}
	w = mustWallet(t, svc, "seller")
	if w.Balance != 1000 || w.PendingBalance != 0 {
		t.Fatalf("after release: %+v", w)
	}
}

func TestHoldThenRefundRestoresPending(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Hold(ctx, "seller", eur(t, 700), "trade-2", "ticket sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	tx, err := svc.RefundHeld(ctx, "seller", eur(t, 700), "trade-2", "trade cancelled")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if tx.Type != TypeDebit || !tx.Refund {
		t.Fatalf("refund must record a refund-marked debit, got %+v", tx)
	}

	w := mustWallet(t, svc, "seller")
	if w.Balance != 0 || w.PendingBalance != 0 {
		t.Fatalf("after refund: %+v", w)
	}
}

func TestRefundClampsToPendingBalance(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Hold(ctx, "seller", eur(t, 200), "trade-3", "ticket sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	tx, err := svc.RefundHeld(ctx, "seller", eur(t, 999), "trade-3", "over-refund")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if tx.Amount != 200 {
		t.Fatalf("refund must record the clamped amount, got %d", tx.Amount)
	}
	w := mustWallet(t, svc, "seller")
	if w.PendingBalance != 0 {
		t.Fatalf("pending balance must never go negative, got %d", w.PendingBalance)
	}
}

func TestDebitInsufficientBalanceLeavesWalletUnchanged(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "bob", eur(t, 500), "c1", "adjustment"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := svc.Debit(ctx, "bob", eur(t, 501), "w1", "withdraw"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	w := mustWallet(t, svc, "bob")
	if w.Balance != 500 || w.PendingBalance != 0 {
		t.Fatalf("failed debit must not mutate wallet: %+v", w)
	}

	log, err := svc.ListTransactions(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("failed debit must not append a transaction, log=%d", len(log))
	}
}

func TestReleaseInsufficientPendingFails(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Hold(ctx, "seller", eur(t, 100), "trade-4", "sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := svc.Release(ctx, "seller", eur(t, 101), "trade-4", "complete"); !errors.Is(err, ErrInsufficientPendingBalance) {
		t.Fatalf("expected ErrInsufficientPendingBalance, got %v", err)
	}
	w := mustWallet(t, svc, "seller")
	if w.PendingBalance != 100 || w.Balance != 0 {
		t.Fatalf("failed release must not mutate wallet: %+v", w)
	}
}

func TestCurrencyMismatchRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "carol", eur(t, 100), "c1", "adjustment"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	usd, err := money.New(100, "USD")
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	if _, err := svc.Credit(ctx, "carol", usd, "c2", "adjustment"); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestFirstHoldSetsCurrencyOnFreshWallet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	gbp, err := money.New(100, "GBP")
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	if _, err := svc.Hold(ctx, "dave", gbp, "trade-5", "sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	w := mustWallet(t, svc, "dave")
	if w.Currency != "GBP" {
		t.Fatalf("first hold should fix the currency, got %s", w.Currency)
	}
}

func TestDuplicateReferenceRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "erin", eur(t, 100), "topup-1", "topup"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.Credit(ctx, "erin", eur(t, 100), "topup-1", "topup retry"); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
	// Same reference with a different type is a different operation.
	if _, err := svc.Debit(ctx, "erin", eur(t, 100), "topup-1", "reversal"); err != nil {
		t.Fatalf("debit with same reference, different type: %v", err)
	}
}

func TestMarketplaceScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Hold(ctx, "seller", eur(t, 1000), "tx1", "sale"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if w := mustWallet(t, svc, "seller"); w.PendingBalance != 1000 {
		t.Fatalf("pending after hold: %d", w.PendingBalance)
	}

	if _, err := svc.Release(ctx, "seller", eur(t, 1000), "tx1", "complete"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if w := mustWallet(t, svc, "seller"); w.Balance != 1000 || w.PendingBalance != 0 {
		t.Fatalf("after release: %+v", w)
	}

	if _, err := svc.Debit(ctx, "seller", eur(t, 1500), "w1", "withdraw"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := svc.Debit(ctx, "seller", eur(t, 1000), "w1", "withdraw"); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if w := mustWallet(t, svc, "seller"); w.Balance != 0 {
		t.Fatalf("final balance: %d", w.Balance)
	}
}

func TestReplayReproducesSnapshot(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	ops := []func() error{
		func() error { _, err := svc.Credit(ctx, "frank", eur(t, 2500), "c1", "adjustment"); return err },
		func() error { _, err := svc.Hold(ctx, "frank", eur(t, 900), "t1", "sale"); return err },
		func() error { _, err := svc.Release(ctx, "frank", eur(t, 400), "t1", "partial complete"); return err },
		func() error { _, err := svc.RefundHeld(ctx, "frank", eur(t, 900), "t1-cancel", "cancel rest"); return err },
		func() error { _, err := svc.Debit(ctx, "frank", eur(t, 1000), "w1", "withdraw"); return err },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
	}

	log, err := svc.ListTransactions(ctx, "frank")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, j := 0, len(log)-1; i < j; i, j = i+1, j-1 {
		log[i], log[j] = log[j], log[i]
	}

	balance, pending := Replay(log)
	w := mustWallet(t, svc, "frank")
	if balance != w.Balance || pending != w.PendingBalance {
		t.Fatalf("replay %d/%d does not match snapshot %d/%d", balance, pending, w.Balance, w.PendingBalance)
	}

	if err := svc.CheckIntegrity(ctx, "frank"); err != nil {
		t.Fatalf("integrity: %v", err)
	}
}

func TestBalancesNeverNegativeUnderSequence(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	steps := []struct {
		op     func() (Transaction, error)
		mayErr bool
	}{
		{func() (Transaction, error) { return svc.Debit(ctx, "gina", eur(t, 50), "", "empty debit") }, true},
		{func() (Transaction, error) { return svc.Hold(ctx, "gina", eur(t, 80), "", "hold") }, false},
		{func() (Transaction, error) { return svc.Release(ctx, "gina", eur(t, 200), "", "over-release") }, true},
		{func() (Transaction, error) { return svc.RefundHeld(ctx, "gina", eur(t, 500), "", "over-refund") }, false},
		{func() (Transaction, error) { return svc.Credit(ctx, "gina", eur(t, 30), "", "credit") }, false},
		{func() (Transaction, error) { return svc.Debit(ctx, "gina", eur(t, 30), "", "drain") }, false},
	}
	for i, step := range steps {
		if _, err := step.op(); err != nil && !step.mayErr {
			t.Fatalf("step %d: %v", i, err)
		}
		w := mustWallet(t, svc, "gina")
		if w.Balance < 0 || w.PendingBalance < 0 {
			t.Fatalf("step %d produced negative balances: %+v", i, w)
		}
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "harry", eur(t, 1000), "seed", "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Debit(ctx, "harry", eur(t, 100), fmt.Sprintf("w-%d", i), "withdraw")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("debit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	w := mustWallet(t, svc, "harry")
	if w.Balance != 1000-int64(succeeded)*100 {
		t.Fatalf("balance %d does not match %d successful debits", w.Balance, succeeded)
	}
	if w.Balance < 0 {
		t.Fatalf("overdraft: %d", w.Balance)
	}
	if err := svc.CheckIntegrity(ctx, "harry"); err != nil {
		t.Fatalf("integrity: %v", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Credit(ctx, "iris", eur(t, int64(i+1)), "", "credit"); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}

	log, err := svc.ListTransactions(ctx, "iris")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(log) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(log))
	}
	for i := 1; i < len(log); i++ {
		if log[i].CreatedAt.After(log[i-1].CreatedAt) {
			t.Fatalf("log not ordered newest first at %d", i)
		}
	}
}
