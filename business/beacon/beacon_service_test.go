package beacon

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"apeBeacon/domain"
	"apeBeacon/internal/repository/memory"

	"github.com/go-playground/validator/v10"
)

type countingSelector struct {
	calls int
	slots []string
	items []domain.ContentItem
	err   error
}

func (s *countingSelector) Select(ctx context.Context, v domain.Visitor, slotIDs []string) ([]domain.ContentItem, error) {
	s.calls++
	s.slots = slotIDs
	return s.items, s.err
}

type failingCustomers struct{}

func (failingCustomers) FindCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return domain.Customer{}, errors.New("connection refused")
}

type recordingPublisher struct {
	events []domain.VisitorEvent
	err    error
}

func (p *recordingPublisher) PublishVisitorEvent(ctx context.Context, ev domain.VisitorEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(t *testing.T) (*BeaconService, *memory.Store, *countingSelector) {
	t.Helper()
	store := memory.NewStore()
	err := store.CreateCustomer(context.Background(), &domain.Customer{
		ID:          "123456",
		DisplayName: "Bar Ltd",
		Sites:       []domain.CustomerSite{{Domain: "bar.com"}},
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	sel := &countingSelector{items: []domain.ContentItem{{ID: "foo", Content: "<b>hi</b>", Styles: ".ape-foo{}"}}}
	svc := NewBeaconService(store, store, sel, validator.New()).
		WithIDGenerator(func() string { return "generated-id" })

	return svc, store, sel
}

func validRequest() domain.BeaconRequest {
	return domain.BeaconRequest{
		Callback:          DefaultCallback,
		PlaceholderPrefix: "ape",
		PageURL:           "http://bar.com/page",
		CustomerID:        "123456",
		EventName:         "pageload",
		EventTime:         time.UnixMilli(1490916389).UTC(),
		SlotIDs:           []string{},
	}
}

func TestProcessValidationShortCircuits(t *testing.T) {
	svc, store, sel := newTestService(t)

	req := validRequest()
	req.DoNotTrack = true
	req.VisitorCookieID = "v1"

	_, err := svc.Process(context.Background(), req)
	var be *domain.BeaconError
	if !errors.As(err, &be) || be.Status != http.StatusConflict {
		t.Fatalf("expected dnt conflict, got %v", err)
	}
	if sel.calls != 0 {
		t.Error("selector must not run after a validation failure")
	}
	if _, err := store.FindVisitor(context.Background(), "123456", "v1"); !errors.Is(err, domain.ErrVisitorNotFound) {
		t.Error("no visitor may be created after a validation failure")
	}
}

func TestProcessGeneratesVisitorID(t *testing.T) {
	svc, store, _ := newTestService(t)

	res, err := svc.Process(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.VisitorID != "generated-id" {
		t.Errorf("expected generated visitor id, got %q", res.VisitorID)
	}

	v, err := store.FindVisitor(context.Background(), "123456", "generated-id")
	if err != nil {
		t.Fatalf("visitor not stored: %v", err)
	}
	if v.EventCount != 1 {
		t.Errorf("expected one recorded event, got %d", v.EventCount)
	}
}

func TestProcessReusesCookieVisitor(t *testing.T) {
	svc, store, _ := newTestService(t)
	req := validRequest()
	req.VisitorCookieID = "foobar"

	for i := 0; i < 3; i++ {
		res, err := svc.Process(context.Background(), req)
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if res.VisitorID != "foobar" {
			t.Fatalf("expected cookie visitor id, got %q", res.VisitorID)
		}
	}

	v, _ := store.FindVisitor(context.Background(), "123456", "foobar")
	if v.EventCount != 3 {
		t.Errorf("expected 3 events, got %d", v.EventCount)
	}
	if n := len(store.VisitorEvents("123456", "foobar")); n != 3 {
		t.Errorf("expected 3 stored events, got %d", n)
	}
}

func TestProcessSkipsSelectorWithoutSlots(t *testing.T) {
	svc, _, sel := newTestService(t)

	res, err := svc.Process(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sel.calls != 0 {
		t.Errorf("expected no content lookup, got %d calls", sel.calls)
	}
	if res.SlotsRequested || res.Components != nil {
		t.Errorf("expected no components, got %+v", res)
	}
}

func TestProcessSelectsForSlots(t *testing.T) {
	svc, _, sel := newTestService(t)
	req := validRequest()
	req.SlotIDs = []string{"foo", "bar"}

	res, err := svc.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sel.calls != 1 || !reflect.DeepEqual(sel.slots, []string{"foo", "bar"}) {
		t.Errorf("expected one selection for [foo bar], got %d %v", sel.calls, sel.slots)
	}
	if !res.SlotsRequested || len(res.Components) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

// Unknown customers and foreign pages degrade to an empty success. This is
// an anti-probing property: do not turn it into an error response.
func TestProcessSilentDegrade(t *testing.T) {
	cases := []struct {
		name     string
		customer string
		page     string
	}{
		{"unknown customer", "999", "http://bar.com/page"},
		{"page outside registered sites", "123456", "http://evil.com/page"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, sel := newTestService(t)
			req := validRequest()
			req.CustomerID = tc.customer
			req.PageURL = tc.page
			req.VisitorCookieID = "v1"
			req.SlotIDs = []string{"foo"}

			res, err := svc.Process(context.Background(), req)
			if err != nil {
				t.Fatalf("expected silent degrade, got error %v", err)
			}
			if res.VisitorID != "" || res.Components != nil {
				t.Errorf("expected empty result, got %+v", res)
			}
			if sel.calls != 0 {
				t.Error("selector must not run for unresolved identities")
			}
			if _, err := store.FindVisitor(context.Background(), tc.customer, "v1"); err == nil {
				t.Error("no visitor may be created for unresolved identities")
			}
		})
	}
}

func TestProcessStoreFailureIsInternal(t *testing.T) {
	store := memory.NewStore()
	svc := NewBeaconService(failingCustomers{}, store, &countingSelector{}, validator.New())

	_, err := svc.Process(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var be *domain.BeaconError
	if errors.As(err, &be) {
		t.Errorf("store failures must not be reported as BeaconError, got %v", be)
	}
}

func TestProcessSelectorFailure(t *testing.T) {
	svc, _, sel := newTestService(t)
	sel.err = errors.New("ranking engine down")
	req := validRequest()
	req.SlotIDs = []string{"foo"}

	if _, err := svc.Process(context.Background(), req); err == nil {
		t.Fatal("expected selector error")
	}
}

func TestProcessPublishesEvents(t *testing.T) {
	svc, _, _ := newTestService(t)
	pub := &recordingPublisher{}
	svc.WithPublisher(pub)

	req := validRequest()
	req.VisitorCookieID = "v1"
	if _, err := svc.Process(context.Background(), req); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].VisitorID != "v1" || pub.events[0].ID == "" {
		t.Fatalf("unexpected published events %+v", pub.events)
	}

	// publish failures never fail the beacon
	pub.err = errors.New("broker gone")
	if _, err := svc.Process(context.Background(), req); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestProcessCancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Process(ctx, validRequest()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "req-1")
	if got := TraceIDFromContext(ctx); got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
	if got := TraceIDFromContext(WithTraceID(context.Background(), "")); got != "" {
		t.Errorf("expected empty trace id, got %q", got)
	}
}
