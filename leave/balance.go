/*
balance.go - Balance ledger with atomic reserve/commit/release

PURPOSE:
  The Ledger is the single source of truth for "can this request be
  granted". It owns all mutations of a balance row's used/pending fields
  and guarantees the core invariant:

      remaining = total - used - pending >= 0  after every committed mutation
      used >= 0, pending >= 0                  always

OPERATIONS:
  Reserve:    pending += days, refused if it would drive remaining negative.
              Called on submission; the atomic re-check here is what closes
              the race between the validator's balance check and the hold.
  CommitUsed: pending -= days, used += days, as ONE atomic move.
              Called on approval. Moving the two fields in a single
              compare-and-swap keeps remaining from transiently inflating,
              which a concurrent Reserve could otherwise exploit to overdraw.
  Release:    pending -= days. Called on rejection and cancellation; the days
              return to the available pool.
  Ensure:     provision the row with its annual allocation if absent.

CONCURRENCY:
  Every mutation is optimistic: read row, apply, compare-and-swap on the
  version column. A lost race is retried a bounded number of times before
  ErrConcurrentModification surfaces to the caller. Distinct keys never
  contend.

  No history is retained here; the row is updated in place. Audit trails
  are an external collaborator's concern.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// LEDGER
// =============================================================================

// defaultMaxRetries bounds transparent retries of lost CAS races.
const defaultMaxRetries = 3

// Ledger performs atomic mutations on balance rows. It is the only writer of
// used_days and pending_days in the system.
type Ledger struct {
	store      BalanceStore
	maxRetries int
}

func NewLedger(store BalanceStore) *Ledger {
	return &Ledger{store: store, maxRetries: defaultMaxRetries}
}

// Get returns the balance row for key.
func (l *Ledger) Get(ctx context.Context, key BalanceKey) (Balance, error) {
	b, err := l.store.GetBalance(ctx, key)
	if err != nil {
		return Balance{}, err
	}
	if b == nil {
		return Balance{}, &NotFoundError{Kind: "balance", ID: key.String()}
	}
	return *b, nil
}

// Ensure returns the balance row for key, provisioning it with the given
// annual allocation if it does not exist yet. Losing the insert race to a
// concurrent provisioner is fine: the winner's row is re-read and returned.
func (l *Ledger) Ensure(ctx context.Context, key BalanceKey, allocation Days) (Balance, error) {
	b, err := l.store.GetBalance(ctx, key)
	if err != nil {
		return Balance{}, err
	}
	if b != nil {
		return *b, nil
	}

	fresh := Balance{
		UserID:    key.UserID,
		TypeCode:  key.TypeCode,
		Year:      key.Year,
		TotalDays: allocation,
		Version:   1,
	}
	err = l.store.CreateBalance(ctx, fresh)
	if err == nil {
		return fresh, nil
	}
	if errors.Is(err, ErrConcurrentModification) {
		return l.Get(ctx, key)
	}
	return Balance{}, err
}

// Reserve places a hold of `days` against the balance. Fails with
// InsufficientBalanceError if the hold would drive remaining below zero.
func (l *Ledger) Reserve(ctx context.Context, key BalanceKey, days Days) (Balance, error) {
	if !days.IsPositive() {
		return Balance{}, fmt.Errorf("reserve: amount must be positive, got %s", days)
	}
	return l.mutate(ctx, key, func(b *Balance) error {
		if b.RemainingDays().LessThan(days) {
			return &InsufficientBalanceError{
				UserID:    key.UserID,
				TypeCode:  key.TypeCode,
				Year:      key.Year,
				Remaining: b.RemainingDays(),
				Requested: days,
			}
		}
		b.PendingDays = b.PendingDays.Add(days)
		return nil
	})
}

// CommitUsed converts a previously reserved hold into consumed days. The
// pending decrement and used increment happen in one atomic write so
// remaining is unchanged throughout.
func (l *Ledger) CommitUsed(ctx context.Context, key BalanceKey, days Days) (Balance, error) {
	if !days.IsPositive() {
		return Balance{}, fmt.Errorf("commit: amount must be positive, got %s", days)
	}
	return l.mutate(ctx, key, func(b *Balance) error {
		if b.PendingDays.LessThan(days) {
			return fmt.Errorf("commit %s exceeds pending %s for %s", days, b.PendingDays, key)
		}
		b.PendingDays = b.PendingDays.Sub(days)
		b.UsedDays = b.UsedDays.Add(days)
		return nil
	})
}

// Release returns a hold to the available pool without consuming it.
func (l *Ledger) Release(ctx context.Context, key BalanceKey, days Days) (Balance, error) {
	if !days.IsPositive() {
		return Balance{}, fmt.Errorf("release: amount must be positive, got %s", days)
	}
	return l.mutate(ctx, key, func(b *Balance) error {
		if b.PendingDays.LessThan(days) {
			return fmt.Errorf("release %s exceeds pending %s for %s", days, b.PendingDays, key)
		}
		b.PendingDays = b.PendingDays.Sub(days)
		return nil
	})
}

// mutate runs a read-modify-CAS loop for a single balance row. fn sees the
// freshest row on each attempt; business rejections from fn abort the loop
// immediately and are never retried.
func (l *Ledger) mutate(ctx context.Context, key BalanceKey, fn func(*Balance) error) (Balance, error) {
	var lastErr error
	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		row, err := l.store.GetBalance(ctx, key)
		if err != nil {
			return Balance{}, err
		}
		if row == nil {
			return Balance{}, &NotFoundError{Kind: "balance", ID: key.String()}
		}

		b := *row
		if err := fn(&b); err != nil {
			return Balance{}, err
		}

		expected := b.Version
		b.Version = expected + 1
		err = l.store.UpdateBalance(ctx, b, expected)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return Balance{}, err
		}
		lastErr = err
	}
	return Balance{}, fmt.Errorf("balance %s: retries exhausted: %w", key, lastErr)
}

func (k BalanceKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.UserID, k.TypeCode, k.Year)
}
