package billing

import (
	"context"
	"sync"

	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// MemoryLedger is an in-memory ledger for tests and local rendering.
type MemoryLedger struct {
	mu           sync.Mutex
	credits      map[string]float64
	Transactions []Transaction
}

// NewMemoryLedger creates a ledger with the given starting balances.
func NewMemoryLedger(credits map[string]float64) *MemoryLedger {
	c := make(map[string]float64, len(credits))
	for k, v := range credits {
		c[k] = v
	}
	return &MemoryLedger{credits: c}
}

// Credits implements Ledger.
func (l *MemoryLedger) Credits(ctx context.Context, userID string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.credits[userID]
	if !ok {
		return 0, errors.New(errors.ErrCodeUserNotFound, "User not found")
	}
	return c, nil
}

// Debit implements Ledger.
func (l *MemoryLedger) Debit(ctx context.Context, tx Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.credits[tx.SenderID]; !ok {
		return errors.New(errors.ErrCodeUserNotFound, "User not found")
	}
	l.credits[tx.SenderID] -= tx.Amount
	l.Transactions = append(l.Transactions, tx)
	return nil
}

// Ensure MemoryLedger implements Ledger.
var _ Ledger = (*MemoryLedger)(nil)
