package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"catalog-service/app/domain"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamPublisher is the publishing half of jetstream.JetStream.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type stockBroker struct {
	js      StreamPublisher
	subject string
}

// NewStockNotifier mirrors stock levels onto "<stream>.available".
func NewStockNotifier(js StreamPublisher, stream string) domain.StockNotifier {
	return &stockBroker{
		js:      js,
		subject: strings.ToLower(stream) + ".available",
	}
}

func (s *stockBroker) PublishStockAvailable(ctx context.Context, data domain.StockMessage) error {
	msg, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "json.Marshal", err)
		return err
	}

	if _, err = s.js.Publish(ctx, s.subject, msg); err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "Publish", err)
		return err
	}

	slog.InfoContext(ctx, "[stockBroker] PublishStockAvailable", "subject", s.subject, "productID", data.ProductID)
	return nil
}

// EnsureStream creates the stock stream if it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name string) error {
	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     strings.ToUpper(name),
		Subjects: []string{fmt.Sprintf("%s.*", strings.ToLower(name))},
		Storage:  jetstream.FileStorage,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create %s stream: %w", name, err)
	}
	return nil
}

// noopNotifier stands in when NATS is not configured.
type noopNotifier struct{}

func NewNoopStockNotifier() domain.StockNotifier {
	return noopNotifier{}
}

func (noopNotifier) PublishStockAvailable(context.Context, domain.StockMessage) error {
	return nil
}
