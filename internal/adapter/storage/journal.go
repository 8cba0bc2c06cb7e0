package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eliasdev/kipu-bank/internal/core/vault"
)

// JournalRepository keeps the durable trail of vault events and the webhook
// job queue the background worker drains. The vault's in-memory log is the
// source of truth for ordering; this is the copy that survives restarts.
type JournalRepository struct {
	db *pgxpool.Pool
}

func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// RecordEvent appends one vault event to the journal.
func (r *JournalRepository) RecordEvent(ctx context.Context, ev vault.Event) error {
	query := `
		INSERT INTO vault_events (id, kind, account_id, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, ev.ID, string(ev.Kind), ev.Account, ev.Amount, ev.At)
	return err
}

// EnqueueWebhook queues a notification job for the worker. The payload
// carries the event plus envelope fields the receiver expects.
func (r *JournalRepository) EnqueueWebhook(ctx context.Context, url string, ev vault.Event) error {
	payload := map[string]interface{}{
		"event": "vault." + string(ev.Kind),
		"data": map[string]interface{}{
			"event_id":   ev.ID,
			"account_id": ev.Account,
			"amount":     ev.Amount,
			"timestamp":  ev.At,
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO webhook_jobs (url, payload) VALUES ($1, $2)`,
		url, payloadJSON)
	return err
}

// JournalEntry mirrors a vault_events row.
type JournalEntry struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	AccountID  uuid.UUID `json:"account_id"`
	Amount     uint64    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListEvents fetches the most recent journal entries for an account.
func (r *JournalRepository) ListEvents(ctx context.Context, accountID uuid.UUID, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, kind, account_id, amount, occurred_at
		FROM vault_events
		WHERE account_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.AccountID, &e.Amount, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
