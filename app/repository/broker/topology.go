package broker

import (
	"errors"
	"fmt"

	"catalog-service/app/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Kind string

const (
	KindExchange Kind = "exchange"
	KindQueue    Kind = "queue"
)

// Entry is one broker object declared on every connect.
type Entry struct {
	Name       string
	Kind       Kind
	Durable    bool
	RoutingKey string
	Exchange   string
}

// OutboundKeys are the events this service publishes. Each one is also bound
// to a durable queue of the same name.
var OutboundKeys = []string{
	domain.EventProductCreated,
	domain.EventProductUpdated,
	domain.EventProductDeleted,
	domain.EventStockUpdated,
}

// InboundKeys are the events this service consumes through its own queues.
var InboundKeys = []string{
	domain.EventProductCreated,
	domain.EventProductUpdated,
	domain.EventProductDeleted,
	domain.EventOrderCreated,
	domain.EventOrderUpdated,
	domain.EventOrderDeleted,
	domain.EventOrderStatusChanged,
	domain.EventClientCreated,
	domain.EventClientUpdated,
	domain.EventClientDeleted,
}

type Topology struct {
	exchange string
	service  string
	entries  []Entry
	outbound map[string]struct{}
	inbound  map[string]string
}

func NewTopology(exchange, service string) *Topology {
	t := &Topology{
		exchange: exchange,
		service:  service,
		outbound: make(map[string]struct{}, len(OutboundKeys)),
		inbound:  make(map[string]string, len(InboundKeys)),
	}

	t.entries = append(t.entries, Entry{Name: exchange, Kind: KindExchange, Durable: true})
	for _, key := range OutboundKeys {
		t.outbound[key] = struct{}{}
		t.entries = append(t.entries, Entry{Name: key, Kind: KindQueue, Durable: true, RoutingKey: key, Exchange: exchange})
	}
	for _, key := range InboundKeys {
		queue := serviceQueue(service, key)
		t.inbound[key] = queue
		t.entries = append(t.entries, Entry{Name: queue, Kind: KindQueue, Durable: true, RoutingKey: key, Exchange: exchange})
	}
	return t
}

func serviceQueue(service, routingKey string) string {
	return service + "." + routingKey
}

func (t *Topology) Exchange() string {
	return t.exchange
}

func (t *Topology) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Route reports whether key is a known outbound routing key.
func (t *Topology) Route(key string) error {
	if _, ok := t.outbound[key]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownRoute, key)
	}
	return nil
}

// InboundQueue returns the service-owned queue bound to key.
func (t *Topology) InboundQueue(key string) (string, error) {
	queue, ok := t.inbound[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRoute, key)
	}
	return queue, nil
}

// Declare creates every entry on ch. Redeclaring an identical object is a
// no-op on the broker side.
func (t *Topology) Declare(ch Channel) error {
	for _, e := range t.entries {
		switch e.Kind {
		case KindExchange:
			if err := ch.ExchangeDeclare(e.Name, amqp.ExchangeTopic, e.Durable, false, false, false, nil); err != nil {
				return declareError(e, err)
			}
		case KindQueue:
			if _, err := ch.QueueDeclare(e.Name, e.Durable, false, false, false, nil); err != nil {
				return declareError(e, err)
			}
			if e.Exchange != "" {
				if err := ch.QueueBind(e.Name, e.RoutingKey, e.Exchange, false, nil); err != nil {
					return declareError(e, err)
				}
			}
		}
	}
	return nil
}

func declareError(e Entry, err error) error {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqp.PreconditionFailed {
		return fmt.Errorf("%w: %s %q: %v", domain.ErrTopologyMismatch, e.Kind, e.Name, err)
	}
	return fmt.Errorf("declare %s %q: %w", e.Kind, e.Name, err)
}
