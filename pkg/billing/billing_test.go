package billing

import (
	"context"
	"testing"

	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

func TestMemoryLedgerCredits(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]float64{"user1": 10})

	c, err := l.Credits(ctx, "user1")
	if err != nil {
		t.Fatalf("Credits error: %v", err)
	}
	if c != 10 {
		t.Errorf("Credits = %v, want 10", c)
	}

	if _, err := l.Credits(ctx, "ghost"); errors.GetCode(err) != errors.ErrCodeUserNotFound {
		t.Errorf("unknown user code = %s, want USER_NOT_FOUND", errors.GetCode(err))
	}
}

func TestMemoryLedgerDebit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[string]float64{"user1": 10})

	tx := Transaction{
		AreaOfUse: "image",
		SenderID:  "user1",
		EventID:   "ev1",
		Amount:    2.5,
		Status:    "completed",
	}
	if err := l.Debit(ctx, tx); err != nil {
		t.Fatalf("Debit error: %v", err)
	}

	c, _ := l.Credits(ctx, "user1")
	if c != 7.5 {
		t.Errorf("balance after debit = %v, want 7.5", c)
	}
	if len(l.Transactions) != 1 || l.Transactions[0].Amount != 2.5 {
		t.Errorf("transactions = %+v", l.Transactions)
	}

	if err := l.Debit(ctx, Transaction{SenderID: "ghost"}); errors.GetCode(err) != errors.ErrCodeUserNotFound {
		t.Errorf("unknown sender code = %s", errors.GetCode(err))
	}
}
