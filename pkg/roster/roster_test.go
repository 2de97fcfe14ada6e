package roster

import (
	"context"
	"testing"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

func TestMemoryStoreGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); errors.GetCode(err) != errors.ErrCodeEventNotFound {
		t.Errorf("missing event code = %s, want EVENT_NOT_FOUND", errors.GetCode(err))
	}

	s.Seed(Event{ID: "ev1", CustomerID: "cust1", ProcessingStatus: StatusIdle})
	ev, err := s.Get(ctx, "ev1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ev.CustomerID != "cust1" || ev.ProcessingStatus != StatusIdle {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(Event{ID: "ev1", Guests: []card.Guest{{Name: "A", MobileNumber: "1111"}}})

	ev, _ := s.Get(ctx, "ev1")
	ev.Guests[0].Name = "mutated"

	again, _ := s.Get(ctx, "ev1")
	if again.Guests[0].Name != "A" {
		t.Error("Get must return a copy, not shared state")
	}
}

func TestSetProcessing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(Event{ID: "ev1", ProcessingStatus: StatusIdle})

	if err := s.SetProcessing(ctx, "ev1"); err != nil {
		t.Fatalf("SetProcessing error: %v", err)
	}
	ev, _ := s.Get(ctx, "ev1")
	if ev.ProcessingStatus != StatusProcessing {
		t.Errorf("status = %s, want processing", ev.ProcessingStatus)
	}

	if err := s.SetProcessing(ctx, "missing"); errors.GetCode(err) != errors.ErrCodeEventNotFound {
		t.Errorf("missing event code = %s", errors.GetCode(err))
	}
}

func TestUpsertMergesByMobileNumber(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(Event{
		ID:         "ev1",
		CustomerID: "cust1",
		Guests: []card.Guest{
			{Name: "Old Name", MobileNumber: "1111", Link: "old-link"},
		},
		ProcessingStatus: StatusProcessing,
	})

	customerID, err := s.Upsert(ctx, "ev1", []card.Guest{
		{Name: "New Name", MobileNumber: "1111", Link: "new-link"},
		{Name: "Fresh", MobileNumber: "2222", Link: "fresh-link"},
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if customerID != "cust1" {
		t.Errorf("customerID = %q, want cust1", customerID)
	}

	ev, _ := s.Get(ctx, "ev1")
	if len(ev.Guests) != 2 {
		t.Fatalf("roster has %d guests, want 2", len(ev.Guests))
	}
	if ev.Guests[0].Name != "New Name" || ev.Guests[0].Link != "new-link" {
		t.Errorf("existing guest not updated: %+v", ev.Guests[0])
	}
	if ev.Guests[1].MobileNumber != "2222" {
		t.Errorf("new guest not appended: %+v", ev.Guests[1])
	}
	if ev.ProcessingStatus != StatusCompleted {
		t.Errorf("status = %s, want completed", ev.ProcessingStatus)
	}
}

func TestUpsertKeepsLinkWhenIncomingEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(Event{ID: "ev1", Guests: []card.Guest{
		{Name: "A", MobileNumber: "1111", Link: "kept-link"},
	}})

	// A failed re-render submits the guest without a link; the previous
	// artifact stays reachable.
	if _, err := s.Upsert(ctx, "ev1", []card.Guest{{Name: "A2", MobileNumber: "1111"}}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	ev, _ := s.Get(ctx, "ev1")
	if ev.Guests[0].Link != "kept-link" {
		t.Errorf("link = %q, want kept-link", ev.Guests[0].Link)
	}
	if ev.Guests[0].Name != "A2" {
		t.Errorf("name = %q, want A2", ev.Guests[0].Name)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Seed(Event{ID: "ev1"})

	guests := []card.Guest{
		{Name: "A", MobileNumber: "1111", Link: "l1"},
		{Name: "B", MobileNumber: "2222", Link: "l2"},
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Upsert(ctx, "ev1", guests); err != nil {
			t.Fatalf("Upsert %d error: %v", i, err)
		}
	}

	ev, _ := s.Get(ctx, "ev1")
	if len(ev.Guests) != 2 {
		t.Errorf("roster has %d guests after repeated upsert, want 2", len(ev.Guests))
	}
}
