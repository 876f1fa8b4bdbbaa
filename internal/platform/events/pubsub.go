// Package events publishes site events (captured leads) to Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
)

// Event is the envelope written to the topic. Payload must be JSON serialisable.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// PubSubPublisher publishes events to a single topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher constructs a publisher for topic.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("events: topic is required")
	}
	return &PubSubPublisher{topic: topic, marshal: json.Marshal}, nil
}

// Publish sends event and waits for the server id. The type and key are copied into
// message attributes so subscribers can filter without decoding.
func (p *PubSubPublisher) Publish(ctx context.Context, event Event) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("events: publisher not initialised")
	}
	if strings.TrimSpace(event.Type) == "" {
		return "", errors.New("events: event type is required")
	}
	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}

	attrs := map[string]string{"type": event.Type}
	if key := strings.TrimSpace(event.Key); key != "" {
		attrs["key"] = key
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("events: publish %s: %w", event.Type, err)
	}
	return id, nil
}
