package beacon

import (
	"context"
	"fmt"

	"apeBeacon/domain"
	"apeBeacon/pkg/logger"
	"apeBeacon/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ContentSelector picks personalised content for a visitor's slots. It is
// the seam where a ranking engine plugs in.
type ContentSelector interface {
	Select(ctx context.Context, visitor domain.Visitor, slotIDs []string) ([]domain.ContentItem, error)
}

// EventPublisher forwards recorded visitor events downstream.
type EventPublisher interface {
	PublishVisitorEvent(ctx context.Context, event domain.VisitorEvent) error
}

type BeaconService struct {
	validate  *validator.Validate
	identity  *identityResolver
	visitors  VisitorRepository
	selector  ContentSelector
	publisher EventPublisher
}

func NewBeaconService(
	customers CustomerRepository,
	visitors VisitorRepository,
	selector ContentSelector,
	validate *validator.Validate,
) *BeaconService {
	return &BeaconService{
		validate: validate,
		identity: &identityResolver{
			customers: customers,
			visitors:  visitors,
			newID:     uuid.NewString,
		},
		visitors: visitors,
		selector: selector,
	}
}

// WithPublisher attaches an event publisher. A nil publisher disables publishing.
func (s *BeaconService) WithPublisher(p EventPublisher) *BeaconService {
	s.publisher = p
	return s
}

// WithIDGenerator replaces the visitor id generator.
func (s *BeaconService) WithIDGenerator(newID func() string) *BeaconService {
	s.identity.newID = newID
	return s
}

// Process runs validation, identity resolution and content selection for
// one normalized request. Returned errors are either *domain.BeaconError or
// internal failures; both are rendered by the caller.
func (s *BeaconService) Process(ctx context.Context, req domain.BeaconRequest) (domain.BeaconResult, error) {
	if err := Validate(s.validate, req); err != nil {
		if be, ok := err.(*domain.BeaconError); ok && be.Kind == domain.KindPolicyRejected {
			metrics.BeaconRequests.WithLabelValues(metrics.OutcomeDoNotTrack).Inc()
		} else {
			metrics.BeaconRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		}
		return domain.BeaconResult{}, err
	}

	if err := ctx.Err(); err != nil {
		metrics.BeaconRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.BeaconResult{}, fmt.Errorf("context error: %w", err)
	}

	tid := TraceIDFromContext(ctx)

	visitor, outcome, err := s.identity.resolve(ctx, req)
	if err != nil {
		logger.Error("Failed to resolve beacon identity", "trace_id", tid, "customer_id", req.CustomerID, "error", err)
		metrics.BeaconRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.BeaconResult{}, err
	}

	switch outcome {
	case identityUnknownCustomer:
		logger.Debug("beacon_unknown_customer", "trace_id", tid, "customer_id", req.CustomerID)
		metrics.BeaconRequests.WithLabelValues(metrics.OutcomeUnknownCustomer).Inc()
		return domain.BeaconResult{}, nil
	case identityUnauthorizedSite:
		logger.Debug("beacon_unauthorized_site", "trace_id", tid, "customer_id", req.CustomerID, "page_url", req.PageURL)
		metrics.BeaconRequests.WithLabelValues(metrics.OutcomeUnauthorizedSite).Inc()
		return domain.BeaconResult{}, nil
	}

	event, err := s.visitors.RecordVisitorEvent(ctx, visitor, req)
	if err != nil {
		logger.Error("Failed to record visitor event", "trace_id", tid, "visitor", visitor.DataID(), "error", err)
		metrics.BeaconRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.BeaconResult{}, fmt.Errorf("record visitor event: %w", err)
	}
	s.publish(ctx, event)

	res := domain.BeaconResult{VisitorID: visitor.ID}

	if len(req.SlotIDs) > 0 {
		items, err := s.selector.Select(ctx, visitor, req.SlotIDs)
		if err != nil {
			logger.Error("Failed to select content", "trace_id", tid, "visitor", visitor.DataID(), "error", err)
			metrics.BeaconRequests.WithLabelValues(metrics.OutcomeError).Inc()
			return domain.BeaconResult{}, fmt.Errorf("select content: %w", err)
		}
		res.SlotsRequested = true
		res.Components = items
		metrics.BeaconComponentsServed.Add(float64(len(items)))
	}

	logger.Debug("beacon_served",
		"trace_id", tid,
		"customer_id", req.CustomerID,
		"visitor_id", visitor.ID,
		"slots", len(req.SlotIDs),
		"components", len(res.Components),
	)
	metrics.BeaconRequests.WithLabelValues(metrics.OutcomeServed).Inc()

	return res, nil
}

func (s *BeaconService) publish(ctx context.Context, event domain.VisitorEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVisitorEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish visitor event", "event_id", event.ID, "error", err)
		metrics.VisitorEventsPublished.WithLabelValues("failed").Inc()
		return
	}
	metrics.VisitorEventsPublished.WithLabelValues("ok").Inc()
}
