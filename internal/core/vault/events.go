package vault

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventDeposited EventKind = "DEPOSITED"
	EventWithdrawn EventKind = "WITHDRAWN"
)

// Event is one entry of the vault's append-only notification log. Exactly one
// event is recorded per successful deposit or withdrawal, in operation order.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Kind    EventKind `json:"kind"`
	Account uuid.UUID `json:"account_id"`
	Amount  uint64    `json:"amount"`
	At      time.Time `json:"at"`
}

func newEvent(kind EventKind, account uuid.UUID, amount uint64) Event {
	return Event{
		ID:      uuid.New(),
		Kind:    kind,
		Account: account,
		Amount:  amount,
		At:      time.Now().UTC(),
	}
}
