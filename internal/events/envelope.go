package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EventCheckoutProceeded fires when a shopper confirms the checkout summary.
	EventCheckoutProceeded = "checkout.proceeded"

	envelopeVersion = 1
	producerName    = "smartcart-api"
)

// Envelope is the stable wire shape of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps the event metadata.
func NewEnvelope(eventType, correlationID string, occurredAt time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    occurredAt.UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return out, nil
}

// CheckoutLine is one cart entry as captured at checkout.
type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	LineTotal int    `json:"line_total"`
}

// CheckoutProceeded is the payload of EventCheckoutProceeded.
type CheckoutProceeded struct {
	SessionID         string         `json:"session_id"`
	AccountID         string         `json:"account_id,omitempty"`
	Lines             []CheckoutLine `json:"lines"`
	ItemsCount        int            `json:"items_count"`
	Subtotal          int            `json:"subtotal"`
	PromoCode         string         `json:"promo_code,omitempty"`
	Discount          int            `json:"discount"`
	LoyaltyPointsUsed int            `json:"loyalty_points_used"`
	DeliveryFee       int            `json:"delivery_fee"`
	TotalPayable      int            `json:"total_payable"`
	PointsToEarn      int            `json:"points_to_earn"`
}
