package broker

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publishedMsg struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu sync.Mutex

	qosErr     error
	declareErr error
	publishErr error
	consumeErr error

	prefetch   int
	exchanges  map[string]string
	queues     []string
	bindings   map[string]string
	published  []publishedMsg
	consumers  map[string]chan amqp.Delivery
	notifiers  []chan *amqp.Error
	closed     bool
	closeCalls int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges: make(map[string]string),
		bindings:  make(map[string]string),
		consumers: make(map[string]chan amqp.Delivery),
	}
}

func (c *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefetch = prefetchCount
	return c.qosErr
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[name] = kind
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}
	c.queues = append(c.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = exchange + "/" + key
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, publishedMsg{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Consume(queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consumeErr != nil {
		return nil, c.consumeErr
	}
	d := make(chan amqp.Delivery, 16)
	c.consumers[queue] = d
	return d, nil
}

func (c *fakeChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifiers = append(c.notifiers, receiver)
	return receiver
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true
	for _, n := range c.notifiers {
		close(n)
	}
	c.notifiers = nil
	for queue, d := range c.consumers {
		close(d)
		delete(c.consumers, queue)
	}
	return nil
}

// fail simulates the broker closing the channel.
func (c *fakeChannel) fail(reason *amqp.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.notifiers {
		n <- reason
	}
}

func (c *fakeChannel) deliver(queue string, d amqp.Delivery) bool {
	c.mu.Lock()
	ch, ok := c.consumers[queue]
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- d
	return true
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) publishedMessages() []publishedMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishedMsg(nil), c.published...)
}

func (c *fakeChannel) hasConsumer(queue string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.consumers[queue]
	return ok
}

type fakeConn struct {
	mu         sync.Mutex
	ch         *fakeChannel
	channelErr error
	notifiers  []chan *amqp.Error
	closed     bool
}

func (c *fakeConn) Channel() (Channel, error) {
	if c.channelErr != nil {
		return nil, c.channelErr
	}
	return c.ch, nil
}

func (c *fakeConn) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifiers = append(c.notifiers, receiver)
	return receiver
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return amqp.ErrClosed
	}
	c.closed = true
	for _, n := range c.notifiers {
		close(n)
	}
	c.notifiers = nil
	return nil
}

func (c *fakeConn) fail(reason *amqp.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.notifiers {
		n <- reason
	}
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var errDialRefused = errors.New("dial tcp: connection refused")

// fakeDialer fails while failUntil returns true for the dial number and
// otherwise hands out a new connection built by setup.
type fakeDialer struct {
	mu        sync.Mutex
	dials     int
	conns     []*fakeConn
	failUntil func(dial int) bool
	setup     func(conn *fakeConn)
	block     chan struct{}
	started   chan struct{}
}

func (d *fakeDialer) Dial(string) (Connection, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	block, started := d.block, d.started
	d.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}

	if d.failUntil != nil && d.failUntil(n) {
		return nil, errDialRefused
	}

	conn := &fakeConn{ch: newFakeChannel()}
	if d.setup != nil {
		d.setup(conn)
	}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) connections() []*fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeConn(nil), d.conns...)
}

func (d *fakeDialer) last() *fakeConn {
	conns := d.connections()
	if len(conns) == 0 {
		return nil
	}
	return conns[len(conns)-1]
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) counts() (acked, nacked int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked), len(a.nacked)
}

type staticChannels struct {
	ch  Channel
	err error
}

func (s staticChannels) Channel() (Channel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}
