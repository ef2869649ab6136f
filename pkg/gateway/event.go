package gateway

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventPaymentIntentSucceeded   EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed      EventType = "payment_intent.payment_failed"
)

// Event is the provider's webhook envelope. Data.Object stays raw until the
// handler knows which shape to decode it into.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession payload carried by checkout.session.completed events.
type CheckoutSession struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// PaymentIntent payload carried by payment_intent.* events.
type PaymentIntent struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

func ParseEvent(rawBody []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("parse webhook event: missing type")
	}
	return &event, nil
}

func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session object: %w", err)
	}
	return &session, nil
}

func (e *Event) PaymentIntent() (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent object: %w", err)
	}
	return &intent, nil
}
