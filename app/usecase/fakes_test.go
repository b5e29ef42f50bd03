package usecase

import (
	"context"
	"fmt"
	"sync"

	"catalog-service/app/domain"
)

// memoryProducts is an in-memory ProductRepository with the same
// decrement rules as the SQL one.
type memoryProducts struct {
	mu    sync.Mutex
	stock map[string]int64
}

func newMemoryProducts(stock map[string]int64) *memoryProducts {
	return &memoryProducts{stock: stock}
}

func (m *memoryProducts) GetByID(_ context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stock[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	return domain.Product{ID: id, Stock: s}, nil
}

func (m *memoryProducts) DecrementStock(_ context.Context, id string, quantity int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stock[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if s < quantity {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrStockInsufficient, id)
	}
	m.stock[id] = s - quantity
	return domain.Product{ID: id, Stock: s - quantity}, nil
}

func (m *memoryProducts) level(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

type publishedEvent struct {
	key   string
	event domain.DomainEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key, event})
	return nil
}

type recordingNotifier struct {
	err      error
	messages []domain.StockMessage
}

func (n *recordingNotifier) PublishStockAvailable(_ context.Context, data domain.StockMessage) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, data)
	return nil
}
