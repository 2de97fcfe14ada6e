// Package billing is the credit-ledger boundary of the pipeline.
//
// The orchestrator needs two operations: read a user's balance for the
// pre-flight check, and record a debit once a billed batch settles. The
// debit amount is computed from the requested guest count at validation
// time, not the completed count — guests that failed mid-batch are still
// charged for (pay for attempt, not success).
package billing

import "context"

// Transaction records one batch's spend.
type Transaction struct {
	AreaOfUse  string  `bson:"areaOfUse"` // medium: image, pdf or video
	SenderID   string  `bson:"senderId"`
	CustomerID string  `bson:"customerId,omitempty"`
	EventID    string  `bson:"eventId"`
	Amount     float64 `bson:"amount"`
	Status     string  `bson:"status"`
}

// Ledger is the credit-ledger boundary.
type Ledger interface {
	// Credits returns the user's current balance.
	// Returns a USER_NOT_FOUND error for unknown users.
	Credits(ctx context.Context, userID string) (float64, error)

	// Debit decrements the sender's balance by tx.Amount and records tx.
	Debit(ctx context.Context, tx Transaction) error
}
