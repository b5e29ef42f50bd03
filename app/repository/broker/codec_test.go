package broker

import (
	"testing"

	"catalog-service/app/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_OrderCreated(t *testing.T) {
	decode := NewDecoder[domain.OrderCreated](validator.New())

	tests := []struct {
		name string
		body string
	}{
		{"bare payload", `{"orderId":12,"produits":[{"id_prod":"p-1","quantite":3}]}`},
		{"envelope", `{"type":"order.created","payload":{"orderId":"12","produits":[{"id_prod":"p-1","quantite":3}]},"sourceService":"order-service"}`},
		{"unknown fields", `{"orderId":12,"clientId":4,"produits":[{"id_prod":"p-1","quantite":3,"prix":2.5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decode([]byte(tt.body))
			require.NoError(t, err)

			order, ok := ev.(domain.OrderCreated)
			require.True(t, ok)
			assert.Equal(t, domain.ID("12"), order.OrderID)
			require.Len(t, order.Lines, 1)
			assert.Equal(t, domain.ID("p-1"), order.Lines[0].ProductID)
			assert.Equal(t, int64(3), order.Lines[0].Quantity)
		})
	}
}

func TestDecoder_Rejects(t *testing.T) {
	decode := NewDecoder[domain.OrderCreated](validator.New())

	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json`},
		{"array", `[1,2]`},
		{"null", `null`},
		{"no lines", `{"orderId":1,"produits":[]}`},
		{"zero quantity", `{"orderId":1,"produits":[{"id_prod":"a","quantite":0}]}`},
		{"missing product", `{"orderId":1,"produits":[{"quantite":2}]}`},
		{"bad id type", `{"orderId":true,"produits":[{"id_prod":"a","quantite":1}]}`},
		{"wrong envelope", `{"type":"order.updated","payload":{"orderId":1,"produits":[{"id_prod":"a","quantite":1}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDecoders_CoverInboundKeys(t *testing.T) {
	decoders := Decoders(validator.New())
	for _, key := range InboundKeys {
		assert.Contains(t, decoders, key)
	}

	ev, err := decoders[domain.EventProductDeleted]([]byte(`{"productId":9}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventProductDeleted, ev.EventType())
	assert.Equal(t, domain.ID("9"), ev.(domain.ProductDeleted).ProductID)
}
