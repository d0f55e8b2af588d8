package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketbay/ticketbay/internal/kvstore"
	"github.com/ticketbay/ticketbay/internal/locks"
	"github.com/ticketbay/ticketbay/internal/money"
)

// Service is the wallet ledger / escrow engine. Every mutating call runs as a
// single serialized step per user: lock, read snapshot, validate, write
// snapshot, append one transaction. The snapshot write and the log append are
// two separate store writes; a crash between them can strand one side, which
// the storage contract accepts.
type Service struct {
	repo            Repository
	locks           *locks.Keyed
	defaultCurrency string
}

// NewService builds a ledger service around the given repository.
func NewService(repo Repository, defaultCurrency string) *Service {
	return &Service{
		repo:            repo,
		locks:           locks.NewKeyed(),
		defaultCurrency: defaultCurrency,
	}
}

// GetOrCreate returns the user's wallet, lazily creating a zero-balance one
// in the default currency. Idempotent.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (Wallet, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	w, _, err := s.getOrCreate(ctx, userID, s.defaultCurrency)
	return w, err
}

// Hold adds captured funds to the pending (escrow) balance. The first hold on
// a freshly created wallet fixes its currency.
func (s *Service) Hold(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error) {
	return s.mutate(ctx, userID, amount, reference, description, TypeHold, false,
		func(w *Wallet, value int64) (int64, error) {
			w.PendingBalance += value
			return value, nil
		})
}

// Release moves funds from the pending balance to the available balance once
// the underlying trade completes.
func (s *Service) Release(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error) {
	return s.mutate(ctx, userID, amount, reference, description, TypeRelease, false,
		func(w *Wallet, value int64) (int64, error) {
			if value > w.PendingBalance {
				return 0, ErrInsufficientPendingBalance
			}
			w.PendingBalance -= value
			w.Balance += value
			return value, nil
		})
}

// RefundHeld removes held funds when an escrowed trade is cancelled and the
// payer is made whole outside this ledger. The removal is clamped to the
// current pending balance and recorded as a refund-marked debit carrying the
// effective amount.
func (s *Service) RefundHeld(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error) {
	return s.mutate(ctx, userID, amount, reference, description, TypeDebit, true,
		func(w *Wallet, value int64) (int64, error) {
			if value > w.PendingBalance {
				value = w.PendingBalance
			}
			w.PendingBalance -= value
			return value, nil
		})
}

// Credit adds directly to the available balance (manual adjustment, bonus).
func (s *Service) Credit(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error) {
	return s.mutate(ctx, userID, amount, reference, description, TypeCredit, false,
		func(w *Wallet, value int64) (int64, error) {
			w.Balance += value
			return value, nil
		})
}

// Debit removes from the available balance (withdrawal).
func (s *Service) Debit(ctx context.Context, userID string, amount money.Amount, reference, description string) (Transaction, error) {
	return s.mutate(ctx, userID, amount, reference, description, TypeDebit, false,
		func(w *Wallet, value int64) (int64, error) {
			if value > w.Balance {
				return 0, ErrInsufficientBalance
			}
			w.Balance -= value
			return value, nil
		})
}

// ListTransactions returns the user's transaction log, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID)
}

// CheckIntegrity replays the user's transaction log and compares the result
// with the stored snapshot.
func (s *Service) CheckIntegrity(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	w, err := s.repo.GetWallet(ctx, userID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	log, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}
	// ListTransactions is newest first; replay wants creation order.
	for i, j := 0, len(log)-1; i < j; i, j = i+1, j-1 {
		log[i], log[j] = log[j], log[i]
	}

	balance, pending := Replay(log)
	if balance != w.Balance || pending != w.PendingBalance {
		return fmt.Errorf("ledger integrity violation for %s: snapshot %d/%d, replay %d/%d",
			userID, w.Balance, w.PendingBalance, balance, pending)
	}
	return nil
}

// mutate runs the shared lock-read-validate-write-append cycle. apply returns
// the effective amount recorded in the log, which can differ from the
// requested one only for clamped refunds.
func (s *Service) mutate(
	ctx context.Context,
	userID string,
	amount money.Amount,
	reference, description string,
	typ TransactionType,
	refund bool,
	apply func(w *Wallet, value int64) (int64, error),
) (Transaction, error) {
	if err := amount.Validate(); err != nil {
		return Transaction{}, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	w, created, err := s.getOrCreate(ctx, userID, amount.Currency)
	if err != nil {
		return Transaction{}, err
	}
	if !created && w.Currency != amount.Currency {
		return Transaction{}, fmt.Errorf("%w: wallet is %s, amount is %s", ErrCurrencyMismatch, w.Currency, amount.Currency)
	}

	if reference != "" {
		exists, err := s.repo.HasTransaction(ctx, userID, typ, reference)
		if err != nil {
			return Transaction{}, err
		}
		if exists {
			return Transaction{}, fmt.Errorf("%w: %s %q", ErrDuplicateReference, typ, reference)
		}
	}

	effective, err := apply(&w, amount.Value)
	if err != nil {
		return Transaction{}, err
	}

	now := time.Now().UTC()
	w.UpdatedAt = now
	if err := s.repo.SaveWallet(ctx, w); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        typ,
		Amount:      effective,
		Currency:    amount.Currency,
		Reference:   reference,
		Description: description,
		Refund:      refund,
		CreatedAt:   now,
	}
	if err := s.repo.AppendTransaction(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// getOrCreate must run under the user's lock. The bool reports whether the
// wallet was created by this call.
func (s *Service) getOrCreate(ctx context.Context, userID, currency string) (Wallet, bool, error) {
	w, err := s.repo.GetWallet(ctx, userID)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return Wallet{}, false, err
	}

	w = Wallet{
		UserID:    userID,
		Currency:  currency,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveWallet(ctx, w); err != nil {
		return Wallet{}, false, err
	}
	return w, true, nil
}
