package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"catalog-service/app/domain"
	"catalog-service/pkg/retry"

	amqp "github.com/rabbitmq/amqp091-go"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var errManagerClosed = errors.New("connection manager closed")

type ConnectionConfig struct {
	URL            string
	Retry          retry.Policy
	ReconnectDelay time.Duration
}

// ConnectionManager owns the single broker connection and channel. It
// redials in the background whenever either of them closes.
type ConnectionManager struct {
	cfg      ConnectionConfig
	topology *Topology
	dial     Dialer

	mu           sync.RWMutex
	conn         Connection
	ch           Channel
	state        State
	connecting   bool
	reconnecting bool
	generation   uint64
	timer        *time.Timer
	hooks        []func(Channel)
}

func NewConnectionManager(cfg ConnectionConfig, topology *Topology, dial Dialer) *ConnectionManager {
	if dial == nil {
		dial = DialAMQP
	}
	return &ConnectionManager{
		cfg:      cfg,
		topology: topology,
		dial:     dial,
		state:    StateDisconnected,
	}
}

// Connect dials with the configured retry policy. It returns nil without
// dialing when a connect is already running or the manager is connected.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state == StateClosed:
		m.mu.Unlock()
		return fmt.Errorf("%w: %w", domain.ErrBrokerUnavailable, errManagerClosed)
	case m.connecting, m.state == StateConnected:
		m.mu.Unlock()
		return nil
	}
	m.connecting = true
	if m.state != StateReconnecting {
		m.state = StateConnecting
	}
	m.mu.Unlock()

	err := m.cfg.Retry.Do(ctx, func(int) error {
		return m.attempt(ctx)
	}, func(attempt int, err error) {
		slog.WarnContext(ctx, "[ConnectionManager] Connect",
			"attempt", attempt,
			"maxAttempts", m.cfg.Retry.MaxAttempts,
			"error", err)
	})
	if err == nil {
		return nil
	}

	m.mu.Lock()
	m.connecting = false
	if m.state == StateConnecting {
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	slog.ErrorContext(ctx, "[ConnectionManager] Connect", "giveUp", err)
	return fmt.Errorf("%w: %w", domain.ErrBrokerUnavailable, err)
}

func (m *ConnectionManager) attempt(ctx context.Context) error {
	conn, err := m.dial(m.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		closeQuietly(nil, conn)
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		closeQuietly(ch, conn)
		return fmt.Errorf("set qos: %w", err)
	}

	if err := m.topology.Declare(ch); err != nil {
		closeQuietly(ch, conn)
		if errors.Is(err, domain.ErrTopologyMismatch) {
			return retry.Permanent(err)
		}
		return err
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		closeQuietly(ch, conn)
		return retry.Permanent(errManagerClosed)
	}
	m.generation++
	gen := m.generation
	m.conn, m.ch = conn, ch
	m.state = StateConnected
	m.connecting = false
	m.reconnecting = false
	hooks := slices.Clone(m.hooks)
	m.mu.Unlock()

	go m.watch(gen, connClosed, chClosed)

	slog.InfoContext(ctx, "[ConnectionManager] Connect", "message", "connected to broker", "generation", gen)
	for _, hook := range hooks {
		hook(ch)
	}
	return nil
}

func (m *ConnectionManager) watch(gen uint64, connClosed, chClosed <-chan *amqp.Error) {
	var reason *amqp.Error
	select {
	case reason = <-connClosed:
	case reason = <-chClosed:
	}
	m.scheduleReconnect(gen, reason)
}

// ScheduleReconnect starts a background reconnect for a manager that is not
// connected, for example after the startup Connect gave up.
func (m *ConnectionManager) ScheduleReconnect() {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()
	m.scheduleReconnect(gen, nil)
}

// scheduleReconnect runs at most one reconnect sequence per generation.
func (m *ConnectionManager) scheduleReconnect(gen uint64, reason *amqp.Error) {
	m.mu.Lock()
	if m.state == StateClosed || gen != m.generation || m.reconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.state = StateReconnecting
	conn, ch := m.conn, m.ch
	m.conn, m.ch = nil, nil
	m.timer = time.AfterFunc(m.cfg.ReconnectDelay, m.reconnect)
	m.mu.Unlock()

	cause := "not connected"
	if reason != nil {
		cause = reason.Error()
	}
	slog.Warn("[ConnectionManager] scheduleReconnect", "reason", cause, "delay", m.cfg.ReconnectDelay)
	closeQuietly(ch, conn)
}

func (m *ConnectionManager) reconnect() {
	ctx := context.Background()

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()

	err := m.Connect(ctx)
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed || m.state == StateConnected {
		return
	}
	slog.ErrorContext(ctx, "[ConnectionManager] reconnect", "retryIn", m.cfg.ReconnectDelay, "error", err)
	m.timer = time.AfterFunc(m.cfg.ReconnectDelay, m.reconnect)
}

// OnConnected registers fn to run with the fresh channel after every
// successful connect.
func (m *ConnectionManager) OnConnected(fn func(Channel)) {
	m.mu.Lock()
	m.hooks = append(m.hooks, fn)
	m.mu.Unlock()
}

// Channel returns the live channel or ErrChannelNotReady.
func (m *ConnectionManager) Channel() (Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ch == nil {
		return nil, domain.ErrChannelNotReady
	}
	return m.ch, nil
}

func (m *ConnectionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Close stops any pending reconnect and closes the channel, then the
// connection. It is safe to call more than once.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn, ch := m.conn, m.ch
	m.conn, m.ch = nil, nil
	m.mu.Unlock()

	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

func closeQuietly(ch Channel, conn Connection) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}
