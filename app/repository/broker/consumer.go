package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"catalog-service/app/domain"
	"catalog-service/pkg/ctxutil"
	"catalog-service/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler reacts to one decoded event. A returned error drops the message.
type Handler func(ctx context.Context, ev domain.Event) error

// ChannelSource is a ChannelProvider that also reports fresh channels.
type ChannelSource interface {
	ChannelProvider
	OnConnected(fn func(Channel))
}

type subscription struct {
	key     string
	queue   string
	decode  Decoder
	handler Handler
	ch      Channel
}

// Consumer runs one worker goroutine per subscribed queue. Deliveries are
// acked manually, one at a time.
type Consumer struct {
	source   ChannelSource
	topology *Topology
	decoders map[string]Decoder
	metrics  *metrics.Metrics
	tag      string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	subs    map[string]*subscription
	stopped bool
}

func NewConsumer(source ChannelSource, topology *Topology, decoders map[string]Decoder, m *metrics.Metrics, tag string) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		source:   source,
		topology: topology,
		decoders: decoders,
		metrics:  m,
		tag:      tag,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[string]*subscription),
	}
	source.OnConnected(c.resubscribe)
	return c
}

// Subscribe attaches h to the service queue bound to key. Consumption starts
// now if a channel is live and accepts the consumer, otherwise on the next
// connect.
func (c *Consumer) Subscribe(key string, h Handler) error {
	queue, err := c.topology.InboundQueue(key)
	if err != nil {
		return err
	}
	decode, ok := c.decoders[key]
	if !ok {
		return fmt.Errorf("%w: no decoder for %q", domain.ErrUnknownRoute, key)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return errors.New("consumer stopped")
	}
	if _, exists := c.subs[queue]; exists {
		c.mu.Unlock()
		return fmt.Errorf("queue %q already has a handler", queue)
	}
	defer c.mu.Unlock()

	sub := &subscription{key: key, queue: queue, decode: decode, handler: h}
	c.subs[queue] = sub

	// c.mu is held so a concurrent resubscribe cannot interleave.
	ch, err := c.source.Channel()
	if err == nil {
		err = c.start(sub, ch)
	}
	if err != nil {
		slog.WarnContext(c.ctx, "[Consumer] Subscribe", "queue", queue, "deferred", err)
	}
	return nil
}

func (c *Consumer) resubscribe(ch Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if err := c.start(sub, ch); err != nil {
			slog.ErrorContext(c.ctx, "[Consumer] resubscribe", "queue", sub.queue, "error", err)
		}
	}
}

// start must be called with c.mu held.
func (c *Consumer) start(sub *subscription, ch Channel) error {
	if c.stopped || sub.ch == ch {
		return nil
	}

	deliveries, err := ch.Consume(sub.queue, c.tag+"."+sub.key, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", sub.queue, err)
	}
	sub.ch = ch

	c.wg.Add(1)
	go c.run(sub, deliveries)

	slog.InfoContext(c.ctx, "[Consumer] start", "queue", sub.queue)
	return nil
}

func (c *Consumer) run(sub *subscription, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			_ = c.dispatch(context.WithoutCancel(c.ctx), sub, d)
		}
	}
}

// dispatch settles d before returning: ack on success, nack without requeue
// on a decode or handler failure.
func (c *Consumer) dispatch(ctx context.Context, sub *subscription, d amqp.Delivery) error {
	msg := domain.InboundMessage{DeliveryTag: d.DeliveryTag, Body: d.Body, Queue: sub.queue}

	ctx = ctxutil.WithQueue(ctx, msg.Queue)
	if id := correlationID(d); id != "" {
		ctx = ctxutil.WithCorrelationID(ctx, id)
	}

	ev, err := sub.decode(msg.Body)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrMessageParse, err)
		slog.ErrorContext(ctx, "[Consumer] dispatch", "deliveryTag", msg.DeliveryTag, "error", err)
		c.metrics.MessageFailed(msg.Queue, metrics.KindParse)
		c.nack(ctx, d)
		return err
	}

	if err := handle(ctx, sub.handler, ev); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrHandler, err)
		slog.ErrorContext(ctx, "[Consumer] dispatch", "deliveryTag", msg.DeliveryTag, "event", ev.EventType(), "error", err)
		c.metrics.MessageFailed(msg.Queue, metrics.KindHandler)
		c.nack(ctx, d)
		return err
	}

	if err := d.Ack(false); err != nil {
		slog.ErrorContext(ctx, "[Consumer] dispatch", "ack", err)
		return err
	}
	c.metrics.MessageReceived(msg.Queue)
	slog.InfoContext(ctx, "[Consumer] dispatch", "event", ev.EventType(), "deliveryTag", msg.DeliveryTag)
	return nil
}

// handle turns a panic in h into an error so the delivery is still settled.
func handle(ctx context.Context, h Handler, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

func (c *Consumer) nack(ctx context.Context, d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		slog.ErrorContext(ctx, "[Consumer] dispatch", "nack", err)
	}
}

func correlationID(d amqp.Delivery) string {
	if d.CorrelationId != "" {
		return d.CorrelationId
	}
	return d.MessageId
}

// Stop ends every worker and waits for in-flight deliveries to settle.
func (c *Consumer) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
