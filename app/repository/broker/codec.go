package broker

import (
	"encoding/json"
	"fmt"

	"catalog-service/app/domain"

	"github.com/go-playground/validator/v10"
)

// Decoder turns a delivery body into a typed event.
type Decoder func(body []byte) (domain.Event, error)

// NewDecoder builds a Decoder for T. The body may be a DomainEvent envelope
// or the bare payload. The decoded value must pass T's validate tags.
func NewDecoder[T domain.Event](validate *validator.Validate) Decoder {
	return func(body []byte) (domain.Event, error) {
		var ev T
		raw, err := unwrapEnvelope(body, ev.EventType())
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ev.EventType(), err)
		}
		if err := validate.Struct(ev); err != nil {
			return nil, fmt.Errorf("validate %s: %w", ev.EventType(), err)
		}
		return ev, nil
	}
}

func unwrapEnvelope(body []byte, eventType string) (json.RawMessage, error) {
	var probe struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	if probe.Type == "" || len(probe.Payload) == 0 {
		return body, nil
	}
	if probe.Type != eventType {
		return nil, fmt.Errorf("envelope type %q, want %q", probe.Type, eventType)
	}
	return probe.Payload, nil
}

// Decoders returns one Decoder per inbound routing key.
func Decoders(validate *validator.Validate) map[string]Decoder {
	return map[string]Decoder{
		domain.EventProductCreated:     NewDecoder[domain.ProductCreated](validate),
		domain.EventProductUpdated:     NewDecoder[domain.ProductUpdated](validate),
		domain.EventProductDeleted:     NewDecoder[domain.ProductDeleted](validate),
		domain.EventOrderCreated:       NewDecoder[domain.OrderCreated](validate),
		domain.EventOrderUpdated:       NewDecoder[domain.OrderUpdated](validate),
		domain.EventOrderDeleted:       NewDecoder[domain.OrderDeleted](validate),
		domain.EventOrderStatusChanged: NewDecoder[domain.OrderStatusChanged](validate),
		domain.EventClientCreated:      NewDecoder[domain.ClientCreated](validate),
		domain.EventClientUpdated:      NewDecoder[domain.ClientUpdated](validate),
		domain.EventClientDeleted:      NewDecoder[domain.ClientDeleted](validate),
	}
}
