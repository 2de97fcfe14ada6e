// Package roster manages event guest rosters and their processing status.
//
// The pipeline touches the roster at exactly two points: it marks an event
// as processing when a billed batch starts, and it upserts the guest list
// (now carrying artifact links) once the fan-out settles. The upsert always
// finishes by setting the status to completed — a roster left at
// "processing" after a batch terminates is a correctness bug, so the
// transition happens even when individual guests failed.
package roster

import (
	"context"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
)

// Status is an event's processing flag. It advances
// idle/completed → processing → completed per batch.
type Status string

// Processing statuses.
const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Event is the roster-facing view of an event: its guests, its processing
// status and the owning customer used for billing attribution.
type Event struct {
	ID               string       `bson:"_id,omitempty"`
	CustomerID       string       `bson:"customerId,omitempty"`
	Guests           []card.Guest `bson:"guests"`
	ProcessingStatus Status       `bson:"processingStatus"`
}

// Store is the roster storage boundary.
type Store interface {
	// Get fetches an event. Returns an EVENT_NOT_FOUND error when missing.
	Get(ctx context.Context, eventID string) (*Event, error)

	// SetProcessing marks the event as processing at batch start.
	SetProcessing(ctx context.Context, eventID string) error

	// Upsert merges guests into the roster by mobile number: existing
	// entries get their name and link updated in place, new entries are
	// appended. It always transitions the status to completed, and returns
	// the owning customer id for billing attribution. Idempotent.
	Upsert(ctx context.Context, eventID string, guests []card.Guest) (string, error)
}

// merge applies the upsert semantics to an in-memory guest list.
// An incoming guest with an empty link keeps the roster's existing link.
func merge(existing []card.Guest, incoming []card.Guest) []card.Guest {
	for _, g := range incoming {
		found := false
		for i := range existing {
			if existing[i].MobileNumber == g.MobileNumber {
				existing[i].Name = g.Name
				if g.Link != "" {
					existing[i].Link = g.Link
				}
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, g)
		}
	}
	return existing
}
