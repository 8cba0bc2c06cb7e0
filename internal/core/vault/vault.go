// Package vault holds the core accounting state machine: per-depositor
// balances of a single asset, a global capacity ceiling, a per-withdrawal
// ceiling, and aggregate operation counters. One mutex serializes every state
// change, so each operation is atomic with respect to every other.
//
// Amounts are unsigned unit counts (smallest denomination, like cents). The
// capacity ceiling bounds every balance and the pooled total, so arithmetic
// here cannot wrap; the one unbounded counter lives in the runtime, which
// rejects overflowing deliveries outright.
package vault

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Config fixes the vault's limits for its entire lifetime.
type Config struct {
	// WithdrawalThreshold is the most value one withdrawal may move.
	// Zero is accepted and disables withdrawals entirely.
	WithdrawalThreshold uint64
	// BankCap is the most value the vault may ever hold in total. Must be > 0.
	BankCap uint64
}

// Runtime is the external execution environment that custodies actual value.
// Collect pulls value attached to a deposit into vault custody, Return hands
// it back when a deposit is rejected, and Payout moves value out to an
// account during a withdrawal, reporting success or failure.
type Runtime interface {
	Collect(from uuid.UUID, amount uint64) error
	Return(to uuid.UUID, amount uint64)
	Payout(to uuid.UUID, amount uint64) error
	Holdings() uint64
}

// Vault owns all accounting state. The sum of balances always equals
// totalDeposited, and totalDeposited never exceeds BankCap.
type Vault struct {
	cfg Config
	rt  Runtime

	mu          sync.Mutex
	balances    map[uuid.UUID]uint64
	total       uint64 // totalDeposited: sum of all balances
	reserved    uint64 // withdrawn value whose payout has not settled yet
	deposits    uint64
	withdrawals uint64
	events      []Event
}

// New builds an empty vault. Construction fails when BankCap is zero or no
// runtime is supplied; WithdrawalThreshold may be zero.
func New(cfg Config, rt Runtime) (*Vault, error) {
	if cfg.BankCap == 0 {
		return nil, fmt.Errorf("%w: bank cap must be > 0", ErrInvalidConfiguration)
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: nil runtime", ErrInvalidConfiguration)
	}
	return &Vault{
		cfg:      cfg,
		rt:       rt,
		balances: make(map[uuid.UUID]uint64),
	}, nil
}

// Config returns the immutable limits the vault was built with.
func (v *Vault) Config() Config { return v.cfg }

// Deposit credits amount to caller and returns the emitted Deposited event.
// The attached value is collected into custody before the capacity check
// runs; if the check fails the value is handed straight back, leaving all
// state untouched. Zero amounts are accepted and still count as a deposit.
func (v *Vault) Deposit(caller uuid.UUID, amount uint64) (Event, error) {
	if err := v.rt.Collect(caller, amount); err != nil {
		return Event{}, err
	}

	v.mu.Lock()
	// Capacity headroom excludes value reserved by in-flight withdrawals:
	// if their payout fails, the reservation turns back into total, and that
	// must never land above the cap. total + reserved <= BankCap always
	// holds, so the subtractions cannot underflow.
	if amount > v.cfg.BankCap-v.total-v.reserved {
		v.mu.Unlock()
		v.rt.Return(caller, amount)
		return Event{}, ErrCapacityExceeded
	}
	v.balances[caller] += amount
	v.total += amount
	v.deposits++
	ev := newEvent(EventDeposited, caller, amount)
	v.events = append(v.events, ev)
	v.mu.Unlock()
	return ev, nil
}

// Withdraw debits amount from caller and pays it out through the runtime.
// All checks run before any mutation, and every mutation lands before the
// outbound payout starts: a re-entrant call triggered by the payout observes
// the already-reduced balance, so it can never double-spend. If the payout
// reports failure the three mutations are reversed and the call fails with
// ErrTransferFailed.
func (v *Vault) Withdraw(caller uuid.UUID, amount uint64) (Event, error) {
	v.mu.Lock()
	if amount > v.cfg.WithdrawalThreshold {
		v.mu.Unlock()
		return Event{}, ErrThresholdExceeded
	}
	if amount > v.balances[caller] {
		v.mu.Unlock()
		return Event{}, ErrInsufficientBalance
	}
	v.balances[caller] -= amount
	v.total -= amount
	// The freed headroom stays reserved until the payout settles, so a
	// re-entrant deposit cannot refill it and strand the rollback above
	// the cap.
	v.reserved += amount
	v.withdrawals++
	v.mu.Unlock()

	// Payout runs outside the lock so the recipient may legally re-enter.
	if err := v.rt.Payout(caller, amount); err != nil {
		// Compensating reversal: inverse operations rather than a snapshot
		// restore, so effects of any interleaved call survive. The reserved
		// headroom guarantees total lands back at or below the cap.
		v.mu.Lock()
		v.balances[caller] += amount
		v.total += amount
		v.reserved -= amount
		v.withdrawals--
		v.mu.Unlock()
		return Event{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	v.mu.Lock()
	v.reserved -= amount
	ev := newEvent(EventWithdrawn, caller, amount)
	v.events = append(v.events, ev)
	v.mu.Unlock()
	return ev, nil
}

// Balance reports the recorded balance of account; unknown accounts read zero.
func (v *Vault) Balance(account uuid.UUID) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account]
}

// TotalDeposited reports the pooled total the vault has accounted for.
func (v *Vault) TotalDeposited() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// Holdings reports the value the runtime actually custodies for the vault.
// It may exceed TotalDeposited when value arrived through a channel that
// bypassed Deposit (a forced transfer); that gap is expected, not hidden.
func (v *Vault) Holdings() uint64 {
	return v.rt.Holdings()
}

// Counts reports how many deposits and withdrawals have succeeded.
func (v *Vault) Counts() (deposits, withdrawals uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deposits, v.withdrawals
}

// Events returns a copy of the notification log in operation order.
func (v *Vault) Events() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Event, len(v.events))
	copy(out, v.events)
	return out
}
