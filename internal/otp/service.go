package otp

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketbay/ticketbay/internal/locks"
	"github.com/ticketbay/ticketbay/internal/notification"
)

const (
	defaultCodeLength  = 6
	defaultCodeTTL     = 10 * time.Minute
	defaultMaxAttempts = 5
)

// Options tunes code issuance and verification.
type Options struct {
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.CodeLength <= 0 || o.CodeLength > 9 {
		o.CodeLength = defaultCodeLength
	}
	if o.TTL <= 0 {
		o.TTL = defaultCodeTTL
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	return o
}

// Service issues and verifies one-time codes. At most one pending, unexpired
// code exists per (user, purpose): issuing a new one expires its predecessor.
// Sends and verifies for the same (user, purpose) serialize on a keyed mutex
// so concurrent sends cannot leave two pending codes.
type Service struct {
	repo     Repository
	notifier notification.Notifier
	opts     Options
	locks    *locks.Keyed
	// now is swapped out by tests to drive expiry.
	now func() time.Time
}

// NewService builds a verification-code service.
func NewService(repo Repository, notifier notification.Notifier, opts Options) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		opts:     opts.withDefaults(),
		locks:    locks.NewKeyed(),
		now:      time.Now,
	}
}

// Send issues a fresh code for (userID, purpose), expiring any prior pending
// one, and hands the code to the out-of-band notifier. Only the expiry is
// returned; the code itself never travels over this interface.
func (s *Service) Send(ctx context.Context, userID string, purpose Purpose) (time.Time, error) {
	if !KnownPurpose(purpose) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	unlock := s.locks.Lock(lockKey(userID, purpose))
	defer unlock()

	now := s.now().UTC()

	existing, err := s.repo.ListByUser(ctx, userID, purpose)
	if err != nil {
		return time.Time{}, err
	}
	for _, c := range existing {
		if c.PendingAt(now) {
			c.Status = StatusExpired
			if err := s.repo.Save(ctx, c); err != nil {
				return time.Time{}, err
			}
		}
	}

	secret, err := generateCode(s.opts.CodeLength)
	if err != nil {
		return time.Time{}, err
	}

	code := Code{
		ID:        uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		Code:      secret,
		Status:    StatusPending,
		ExpiresAt: now.Add(s.opts.TTL),
		CreatedAt: now,
	}
	if err := s.repo.Save(ctx, code); err != nil {
		return time.Time{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindVerificationCode,
			Destination: userID,
			Body:        fmt.Sprintf("Your %s code is %s", purpose, secret),
		})
	}

	return code.ExpiresAt, nil
}

// Verify checks the submitted code against the latest pending one.
func (s *Service) Verify(ctx context.Context, userID string, purpose Purpose, submitted string) error {
	if !KnownPurpose(purpose) {
		return fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	unlock := s.locks.Lock(lockKey(userID, purpose))
	defer unlock()

	now := s.now().UTC()

	code, ok, err := s.latestPending(ctx, userID, purpose)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPendingCode
	}

	if !now.Before(code.ExpiresAt) {
		code.Status = StatusExpired
		if err := s.repo.Save(ctx, code); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if submitted != code.Code {
		code.Attempts++
		if code.Attempts >= s.opts.MaxAttempts {
			code.Status = StatusExpired
			if err := s.repo.Save(ctx, code); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		if err := s.repo.Save(ctx, code); err != nil {
			return err
		}
		return ErrCodeMismatch
	}

	code.Status = StatusVerified
	code.VerifiedAt = &now
	return s.repo.Save(ctx, code)
}

// HasPending reports whether a live code exists for (userID, purpose).
func (s *Service) HasPending(ctx context.Context, userID string, purpose Purpose) (bool, error) {
	if !KnownPurpose(purpose) {
		return false, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}
	code, ok, err := s.latestPending(ctx, userID, purpose)
	if err != nil || !ok {
		return false, err
	}
	return code.PendingAt(s.now().UTC()), nil
}

// latestPending returns the newest pending code by CreatedAt. The invalidate-
// on-send rule keeps at most one alive, but the query stays defensive against
// theoretical coexistence. Status transitions are left to the caller so that
// HasPending stays read-only.
func (s *Service) latestPending(ctx context.Context, userID string, purpose Purpose) (Code, bool, error) {
	codes, err := s.repo.ListByUser(ctx, userID, purpose)
	if err != nil {
		return Code{}, false, err
	}

	var (
		latest Code
		found  bool
	)
	for _, c := range codes {
		if c.Status != StatusPending {
			continue
		}
		if !found || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
			found = true
		}
	}
	if !found {
		return Code{}, false, nil
	}
	return latest, true, nil
}

// generateCode draws 4 random bytes, reduces the unsigned 32-bit value modulo
// 10^length and left-pads with zeros. Approximately uniform, which is
// acceptable against guessing at these lengths.
func generateCode(length int) (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:])

	mod := uint32(1)
	for i := 0; i < length; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", length, n%mod), nil
}

func lockKey(userID string, purpose Purpose) string {
	return userID + ":" + string(purpose)
}
