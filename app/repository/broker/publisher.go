package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"catalog-service/app/domain"
	"catalog-service/pkg/ctxutil"
	"catalog-service/pkg/metrics"

	"github.com/gofrs/uuid/v5"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelProvider hands out the current broker channel.
type ChannelProvider interface {
	Channel() (Channel, error)
}

type PublisherConfig struct {
	AppID   string
	Timeout time.Duration
}

type Publisher struct {
	channels ChannelProvider
	topology *Topology
	cfg      PublisherConfig
	metrics  *metrics.Metrics
}

func NewPublisher(channels ChannelProvider, topology *Topology, cfg PublisherConfig, m *metrics.Metrics) *Publisher {
	return &Publisher{
		channels: channels,
		topology: topology,
		cfg:      cfg,
		metrics:  m,
	}
}

// Publish sends event once, as a persistent JSON message, to the topology
// exchange under key. It does not retry.
func (p *Publisher) Publish(ctx context.Context, key string, event domain.DomainEvent) error {
	if err := p.publish(ctx, key, event); err != nil {
		p.metrics.MessageFailed(key, metrics.KindPublish)
		slog.ErrorContext(ctx, "[Publisher] Publish", "routingKey", key, "error", err)
		return err
	}

	p.metrics.MessageSent(key)
	slog.InfoContext(ctx, "[Publisher] Publish", "routingKey", key, "type", event.Type)
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, event domain.DomainEvent) error {
	if err := p.topology.Route(key); err != nil {
		return err
	}

	ch, err := p.channels.Channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Type:          event.Type,
		Timestamp:     event.Timestamp,
		AppId:         p.cfg.AppID,
		CorrelationId: ctxutil.GetCorrelationID(ctx),
		Body:          body,
	}
	if id, err := uuid.NewV4(); err == nil {
		msg.MessageId = id.String()
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	if err := ch.PublishWithContext(ctx, p.topology.Exchange(), key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
