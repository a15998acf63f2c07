package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"apeBeacon/domain"
	"apeBeacon/pkg/logger"
	"apeBeacon/pkg/metrics"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client is the part of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type visitorEventPayload struct {
	EventID    string         `json:"event_id"`
	CustomerID string         `json:"customer_id"`
	VisitorID  string         `json:"visitor_id"`
	EventName  string         `json:"event_name"`
	PageURL    string         `json:"page_url"`
	OccurredAt string         `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// EventPublisher fans recorded visitor events out to
// "<prefix>/<customer_id>/events" at QoS 0.
type EventPublisher struct {
	client Client
	prefix string
}

func NewEventPublisher(client Client, topicPrefix string) *EventPublisher {
	if topicPrefix == "" {
		topicPrefix = "ape"
	}
	return &EventPublisher{client: client, prefix: topicPrefix}
}

// Connect dials the broker the same way for every caller.
func Connect(brokerURL, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(fmt.Sprintf("%s-%d", clientID, time.Now().UnixNano())).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", token.Error())
	}

	logger.Info("Connected to MQTT broker", "broker", brokerURL)
	return client, nil
}

func (p *EventPublisher) Topic(customerID string) string {
	return fmt.Sprintf("%s/%s/events", p.prefix, customerID)
}

func (p *EventPublisher) PublishVisitorEvent(ctx context.Context, ev domain.VisitorEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	data, err := json.Marshal(visitorEventPayload{
		EventID:    ev.ID,
		CustomerID: ev.CustomerID,
		VisitorID:  ev.VisitorID,
		EventName:  ev.EventName,
		PageURL:    ev.PageURL,
		OccurredAt: ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		Data:       ev.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := p.client.Publish(p.Topic(ev.CustomerID), 0, false, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		metrics.VisitorEventsPublished.WithLabelValues("timeout").Inc()
		return fmt.Errorf("publish aborted: %w", ctx.Err())
	}

	if err := token.Error(); err != nil {
		metrics.VisitorEventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish error: %w", err)
	}

	metrics.VisitorEventsPublished.WithLabelValues("ok").Inc()
	return nil
}
