// Package bus publishes pipeline telemetry events over Watermill. Delivery
// guarantees belong to the transport; publication is fire-and-forget from
// the pipeline's perspective.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/vacationgenius/dealwatch/internal/models"
)

// Topic names consumed by downstream collaborators.
const (
	TopicPriceObserved = "hotel-price-observed"
	TopicDealDetected  = "deal-detected"
	TopicDigestQueued  = "deal-digest-queued"
)

// PriceObservedEvent is emitted once per (user, snapshot) after a fetch.
type PriceObservedEvent struct {
	UserID      string               `json:"user_id"`
	Destination string               `json:"destination"`
	Hotel       models.HotelSnapshot `json:"hotel"`
	Timestamp   time.Time            `json:"timestamp"`
}

// DealDetectedEvent is emitted once per (user, verdict).
type DealDetectedEvent struct {
	UserID      string             `json:"user_id"`
	Destination string             `json:"destination"`
	Verdict     models.DealVerdict `json:"verdict"`
	Timestamp   time.Time          `json:"timestamp"`
}

// DigestQueuedEvent is emitted for matches with monitor urgency. Digest
// batching is the dispatch collaborator's concern; this core only exposes
// the queued match.
type DigestQueuedEvent struct {
	Match     models.MatchResult `json:"match"`
	Timestamp time.Time          `json:"timestamp"`
}

// Producer publishes pipeline events to the configured publisher.
type Producer struct {
	pub message.Publisher
}

// NewProducer wraps any Watermill publisher. Production wiring uses the
// NATS publisher from NewNATSPublisher; tests inject an in-process one.
func NewProducer(pub message.Publisher) *Producer {
	return &Producer{pub: pub}
}

// Close closes the underlying publisher.
func (p *Producer) Close() error {
	return p.pub.Close()
}

// PublishPriceObserved emits a hotel-price-observed event.
func (p *Producer) PublishPriceObserved(userID, destination string, hotel models.HotelSnapshot) error {
	return p.publish(TopicPriceObserved, PriceObservedEvent{
		UserID:      userID,
		Destination: destination,
		Hotel:       hotel,
		Timestamp:   time.Now(),
	})
}

// PublishDealDetected emits a deal-detected event.
func (p *Producer) PublishDealDetected(userID, destination string, verdict models.DealVerdict) error {
	return p.publish(TopicDealDetected, DealDetectedEvent{
		UserID:      userID,
		Destination: destination,
		Verdict:     verdict,
		Timestamp:   time.Now(),
	})
}

// PublishDigestQueued emits a deal-digest-queued event for a monitor-urgency match.
func (p *Producer) PublishDigestQueued(match models.MatchResult) error {
	return p.publish(TopicDigestQueued, DigestQueuedEvent{
		Match:     match,
		Timestamp: time.Now(),
	})
}

func (p *Producer) publish(topic string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.New().String(), b)
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}
