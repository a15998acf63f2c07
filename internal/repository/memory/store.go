package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"apeBeacon/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Store keeps customers, visitors and content in process memory. Every
// method takes the store lock, so each call is atomic per visitor key.
type Store struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	visitors  map[visitorKey]domain.Visitor
	events    []domain.VisitorEvent
	content   map[string]domain.Content
	now       func() time.Time
	nextSite  uint
}

type visitorKey struct {
	customerID string
	visitorID  string
}

func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		visitors:  make(map[visitorKey]domain.Visitor),
		content:   make(map[string]domain.Content),
		now:       time.Now,
	}
}

func (s *Store) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; ok {
		return domain.ErrCustomerExists
	}

	now := s.now().UTC()
	customer.CreatedAt = now
	for i := range customer.Sites {
		s.nextSite++
		customer.Sites[i].ID = s.nextSite
		customer.Sites[i].CustomerID = customer.ID
		customer.Sites[i].CreatedAt = now
	}

	s.customers[customer.ID] = cloneCustomer(*customer)
	return nil
}

func (s *Store) FindCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (s *Store) AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerSite{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok {
		return domain.CustomerSite{}, domain.ErrCustomerNotFound
	}
	for _, existing := range c.Sites {
		if existing.Domain == siteDomain {
			return existing, nil
		}
	}

	s.nextSite++
	site := domain.CustomerSite{
		ID:         s.nextSite,
		CustomerID: customerID,
		Domain:     siteDomain,
		CreatedAt:  s.now().UTC(),
	}
	c.Sites = append(c.Sites, site)
	s.customers[customerID] = c

	return site, nil
}

func (s *Store) FindOrCreateVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := visitorKey{customerID: customerID, visitorID: visitorID}
	if v, ok := s.visitors[key]; ok {
		return cloneVisitor(v), nil
	}

	now := s.now().UTC()
	v := domain.Visitor{
		ID:          visitorID,
		CustomerID:  customerID,
		Data:        datatypes.JSONMap{},
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	s.visitors[key] = v

	return cloneVisitor(v), nil
}

func (s *Store) FindVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.visitors[visitorKey{customerID: customerID, visitorID: visitorID}]
	if !ok {
		return domain.Visitor{}, domain.ErrVisitorNotFound
	}
	return cloneVisitor(v), nil
}

func (s *Store) RecordVisitorEvent(ctx context.Context, visitor domain.Visitor, req domain.BeaconRequest) (domain.VisitorEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := visitorKey{customerID: visitor.CustomerID, visitorID: visitor.ID}
	current, ok := s.visitors[key]
	if !ok {
		return domain.VisitorEvent{}, domain.ErrVisitorNotFound
	}

	now := s.now().UTC()
	ev := domain.NewVisitorEvent(current, req)
	ev.ID = uuid.NewString()
	ev.CreatedAt = now

	current.ApplyEvent(ev, now)
	s.visitors[key] = current
	s.events = append(s.events, ev)

	return ev, nil
}

// VisitorEvents returns the recorded events for one visitor, oldest first.
func (s *Store) VisitorEvents(customerID, visitorID string) []domain.VisitorEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.VisitorEvent
	for _, ev := range s.events {
		if ev.CustomerID == customerID && ev.VisitorID == visitorID {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Store) SaveContent(ctx context.Context, c *domain.Content) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[c.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.content[c.ID] = *c

	return nil
}

// FindContent returns the customer's candidates for any of the slots,
// including slot-agnostic ones, ordered by id.
func (s *Store) FindContent(ctx context.Context, customerID string, slots []string) ([]domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		want[slot] = struct{}{}
	}

	out := []domain.Content{}
	for _, c := range s.content {
		if c.CustomerID != customerID {
			continue
		}
		if _, ok := want[c.Slot]; c.Slot != "" && !ok {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneCustomer(c domain.Customer) domain.Customer {
	sites := make([]domain.CustomerSite, len(c.Sites))
	copy(sites, c.Sites)
	c.Sites = sites
	return c
}

func cloneVisitor(v domain.Visitor) domain.Visitor {
	data := datatypes.JSONMap{}
	for k, val := range v.Data {
		data[k] = val
	}
	v.Data = data
	return v
}
