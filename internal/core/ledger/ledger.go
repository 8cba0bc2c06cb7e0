// Package ledger reconstructs the execution environment the vault runs on:
// it custodies actual value and moves it between external wallets and the
// vault's pooled holdings. The vault only does bookkeeping; the runtime is
// where value really sits.
package ledger

import (
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientAttachedValue means a deposit tried to attach more value
	// than the caller's wallet holds.
	ErrInsufficientAttachedValue = errors.New("wallet holds less than the attached value")

	// ErrCustodyOverflow means a delivery would overflow the custody counter.
	// Overflow is a hard failure, never wraparound.
	ErrCustodyOverflow = errors.New("delivery would overflow custody")
)

// ReceiveFunc runs when a payout lands in an account's wallet, before the
// payout is considered settled. Returning an error fails the payout. The hook
// may call back into the vault, which is exactly the re-entrancy window the
// vault's ordering defends against.
type ReceiveFunc func(amount uint64) error

// InProc is an in-process runtime: wallets and custody are plain counters
// behind a mutex. Each movement is atomic; a payout whose receiver rejects it
// is reversed in full before the failure is reported.
type InProc struct {
	mu        sync.Mutex
	held      uint64 // value under vault custody
	wallets   map[uuid.UUID]uint64
	receivers map[uuid.UUID]ReceiveFunc
}

func NewInProc() *InProc {
	return &InProc{
		wallets:   make(map[uuid.UUID]uint64),
		receivers: make(map[uuid.UUID]ReceiveFunc),
	}
}

// Mint credits freshly settled value to an account's external wallet. This is
// the funding rail's entry point, not a vault deposit.
func (r *InProc) Mint(to uuid.UUID, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount > math.MaxUint64-r.wallets[to] {
		return ErrCustodyOverflow
	}
	r.wallets[to] += amount
	return nil
}

// Wallet reports an account's external wallet balance.
func (r *InProc) Wallet(id uuid.UUID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallets[id]
}

// OnReceive registers a hook invoked whenever a payout reaches id's wallet.
func (r *InProc) OnReceive(id uuid.UUID, fn ReceiveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[id] = fn
}

// Collect moves attached value from the caller's wallet into vault custody.
// It fails without moving anything when the wallet is underfunded or custody
// would overflow.
func (r *InProc) Collect(from uuid.UUID, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount > r.wallets[from] {
		return ErrInsufficientAttachedValue
	}
	if amount > math.MaxUint64-r.held {
		return ErrCustodyOverflow
	}
	r.wallets[from] -= amount
	r.held += amount
	return nil
}

// Return hands previously collected value back to a wallet, used when the
// vault rejects a deposit after the value already arrived.
func (r *InProc) Return(to uuid.UUID, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held -= amount
	r.wallets[to] += amount
}

// Payout moves value out of custody into the recipient's wallet, then runs
// the recipient's receive hook. A hook error reverses the movement and fails
// the payout — but only while the wallet can still cover the claw-back. A
// hook that already spent the credit forfeits rejection: the value moved
// irrevocably, so the payout settles despite the error. The hook runs
// outside the runtime lock so it may re-enter the vault (or the runtime)
// without deadlocking.
func (r *InProc) Payout(to uuid.UUID, amount uint64) error {
	r.mu.Lock()
	if amount > r.held {
		r.mu.Unlock()
		return errors.New("custody underfunded")
	}
	r.held -= amount
	r.wallets[to] += amount
	hook := r.receivers[to]
	r.mu.Unlock()

	if hook != nil {
		if err := hook(amount); err != nil {
			r.mu.Lock()
			if amount > r.wallets[to] {
				// Claw-back would wrap the wallet; the credit is gone, so
				// the delivery stands.
				r.mu.Unlock()
				return nil
			}
			r.wallets[to] -= amount
			r.held += amount
			r.mu.Unlock()
			return err
		}
	}
	return nil
}

// ForceDeliver pushes value into vault custody without going through Deposit,
// the unsolicited-transfer channel. The vault's recorded total will not know
// about it; Holdings will.
func (r *InProc) ForceDeliver(amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount > math.MaxUint64-r.held {
		return ErrCustodyOverflow
	}
	r.held += amount
	return nil
}

// Holdings reports the value currently under vault custody as the runtime
// observes it.
func (r *InProc) Holdings() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held
}
