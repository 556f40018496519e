package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config holds the broker connection settings for a Publisher.
type Config struct {
	// URL is the NATS server address (nats://host:port).
	URL string

	// AuthToken authenticates the connection when the broker requires
	// token auth. Empty means no authentication.
	AuthToken string

	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration

	// Name identifies this client to the broker.
	Name string
}

// DefaultConfig returns settings for a local unauthenticated broker.
func DefaultConfig() *Config {
	return &Config{
		URL:            nats.DefaultURL,
		ConnectTimeout: 5 * time.Second,
		Name:           "shelfd",
	}
}

// Publisher sends catalog change events to NATS.
//
// All publish methods are best-effort: failures are logged and never
// returned, so the broker cannot fail a catalog mutation. Safe for
// concurrent use.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to the broker and returns a ready publisher.
//
// The connection retries in the background if the broker is not yet
// reachable, so a publisher created at daemon startup recovers once the
// broker comes up. A nil logger discards log output.
func NewPublisher(cfg *Config, logger *zap.Logger) (*Publisher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("broker URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1 * time.Second),
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectTimeout))
	}
	if cfg.AuthToken != "" {
		opts = append(opts, nats.Token(cfg.AuthToken))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return &Publisher{nc: nc, logger: logger}, nil
}

// BookCreated publishes a created event carrying the full book snapshot.
func (p *Publisher) BookCreated(ctx context.Context, book Book) {
	event := Event{
		EventID:   uuid.New().String(),
		Type:      TypeBookCreated,
		BookID:    book.ID,
		Book:      &book,
		Timestamp: time.Now().UTC(),
	}
	p.publish(fmt.Sprintf(subjectCreated, book.ID), event)
}

// BookDeleted publishes a deleted event carrying only the book ID.
func (p *Publisher) BookDeleted(ctx context.Context, id int) {
	event := Event{
		EventID:   uuid.New().String(),
		Type:      TypeBookDeleted,
		BookID:    id,
		Timestamp: time.Now().UTC(),
	}
	p.publish(fmt.Sprintf(subjectDeleted, id), event)
}

// publish marshals and sends one event. Failures are logged, not returned.
func (p *Publisher) publish(subject string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal catalog event",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("publish catalog event",
			zap.String("subject", subject),
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return
	}

	p.logger.Debug("published catalog event",
		zap.String("subject", subject),
		zap.String("event_id", event.EventID),
		zap.String("type", event.Type))
}

// Watch delivers catalog change events on the returned channel until
// ctx is cancelled, at which point the channel closes.
//
// Malformed payloads are dropped with a log line. Delivery is
// best-effort over the broker's buffers; a consumer that stops
// draining loses events rather than stalling the connection.
func (p *Publisher) Watch(ctx context.Context) (<-chan Event, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := p.nc.ChanSubscribe(subjectAll, msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe to catalog events: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() { _ = sub.Unsubscribe() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				var event Event
				if err := json.Unmarshal(msg.Data, &event); err != nil {
					p.logger.Warn("drop malformed catalog event",
						zap.String("subject", msg.Subject),
						zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// Close flushes buffered events and closes the broker connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}
