package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"apeBeacon/domain"
)

func seedCustomer(t *testing.T, s *Store, id string, sites ...string) {
	t.Helper()
	c := &domain.Customer{ID: id, DisplayName: "Customer " + id}
	for _, d := range sites {
		c.Sites = append(c.Sites, domain.CustomerSite{Domain: d})
	}
	if err := s.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.FindCustomer(ctx, "nope"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	seedCustomer(t, s, "c1", "example.com")
	if err := s.CreateCustomer(ctx, &domain.Customer{ID: "c1"}); !errors.Is(err, domain.ErrCustomerExists) {
		t.Errorf("expected ErrCustomerExists, got %v", err)
	}

	if _, err := s.AddSite(ctx, "c1", "shop.example.org"); err != nil {
		t.Fatalf("add site: %v", err)
	}
	// adding the same domain twice is a no-op
	if _, err := s.AddSite(ctx, "c1", "shop.example.org"); err != nil {
		t.Fatalf("add site again: %v", err)
	}

	c, err := s.FindCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if got := c.Domains(); len(got) != 2 || got[0] != "example.com" || got[1] != "shop.example.org" {
		t.Errorf("unexpected domains %v", got)
	}

	// returned customers are copies
	c.Sites[0].Domain = "mutated"
	again, _ := s.FindCustomer(ctx, "c1")
	if again.Sites[0].Domain != "example.com" {
		t.Error("store state mutated through returned customer")
	}

	if _, err := s.AddSite(ctx, "missing", "x.com"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestVisitorEvents(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCustomer(t, s, "c1", "example.com")

	v1, err := s.FindOrCreateVisitor(ctx, "c1", "v1")
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	v2, _ := s.FindOrCreateVisitor(ctx, "c1", "v1")
	if v1.ID != v2.ID || v1.FirstSeenAt != v2.FirstSeenAt {
		t.Error("expected the same visitor on second lookup")
	}

	req := domain.BeaconRequest{
		CustomerID: "c1",
		PageURL:    "http://example.com/a",
		EventName:  "pageload",
		EventTime:  time.UnixMilli(1490916389).UTC(),
		SlotIDs:    []string{"foo"},
	}
	ev, err := s.RecordVisitorEvent(ctx, v1, req)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ev.ID == "" || ev.PageURL != req.PageURL {
		t.Errorf("unexpected event %+v", ev)
	}

	got, err := s.FindVisitor(ctx, "c1", "v1")
	if err != nil {
		t.Fatalf("find visitor: %v", err)
	}
	if got.EventCount != 1 {
		t.Errorf("expected event_count 1, got %d", got.EventCount)
	}
	if got.Data["page_url"] != "http://example.com/a" {
		t.Errorf("expected snapshot page_url, got %v", got.Data["page_url"])
	}

	if _, err := s.RecordVisitorEvent(ctx, domain.Visitor{ID: "ghost", CustomerID: "c1"}, req); !errors.Is(err, domain.ErrVisitorNotFound) {
		t.Errorf("expected ErrVisitorNotFound, got %v", err)
	}

	// same visitor id under another customer is a different visitor
	if _, err := s.FindVisitor(ctx, "c2", "v1"); !errors.Is(err, domain.ErrVisitorNotFound) {
		t.Errorf("expected visitor scoped to customer, got %v", err)
	}
}

func TestConcurrentEventsAreCounted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCustomer(t, s, "c1", "example.com")
	v, _ := s.FindOrCreateVisitor(ctx, "c1", "v1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RecordVisitorEvent(ctx, v, domain.BeaconRequest{CustomerID: "c1", PageURL: "example.com"})
		}()
	}
	wg.Wait()

	got, _ := s.FindVisitor(ctx, "c1", "v1")
	if got.EventCount != 50 {
		t.Errorf("expected 50 events, got %d", got.EventCount)
	}
	if n := len(s.VisitorEvents("c1", "v1")); n != 50 {
		t.Errorf("expected 50 stored events, got %d", n)
	}
}

func TestFindContent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedCustomer(t, s, "c1", "example.com")
	seedCustomer(t, s, "c2", "other.com")

	rows := []*domain.Content{
		{ID: "a", CustomerID: "c1", Slot: "hero", Body: "A"},
		{ID: "b", CustomerID: "c1", Slot: "side", Body: "B"},
		{ID: "c", CustomerID: "c1", Body: "any slot"},
		{ID: "d", CustomerID: "c2", Slot: "hero", Body: "D"},
	}
	for _, r := range rows {
		if err := s.SaveContent(ctx, r); err != nil {
			t.Fatalf("save content: %v", err)
		}
	}

	got, err := s.FindContent(ctx, "c1", []string{"hero"})
	if err != nil {
		t.Fatalf("find content: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("unexpected candidates %+v", got)
	}

	if err := s.SaveContent(ctx, &domain.Content{CustomerID: "ghost", Body: "x"}); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}
