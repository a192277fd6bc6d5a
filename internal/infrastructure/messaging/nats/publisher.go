package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const closeTimeout = 5 * time.Second

type jetStream interface {
	PublishAsync(subject string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
	PublishAsyncPending() int
	PublishAsyncComplete() <-chan struct{}
}

// identified events carry a stable ID used for JetStream de-duplication
type identified interface {
	MessageID() string
}

// NATSPublisher implements EventPublisher for NATS JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetStream
	logger *logger.Logger
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(natsURL string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("sla-report"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", natsURL)

	return &NATSPublisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// PublishEvent publishes an event to NATS (async); call Flush to wait for acks
func (p *NATSPublisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []nats.PubOpt
	if ev, ok := event.(identified); ok && ev.MessageID() != "" {
		opts = append(opts, nats.MsgId(ev.MessageID()))
	}

	if _, err := p.js.PublishAsync(subject, data, opts...); err != nil {
		p.logger.Error("Failed to publish event", err,
			"subject", subject,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"subject", subject,
		"size", len(data),
	)

	return nil
}

// Flush waits until every async publish has been acknowledged
func (p *NATSPublisher) Flush(ctx context.Context) error {
	pending := p.js.PublishAsyncPending()
	if pending == 0 {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("nats flush interrupted with %d pending acks: %w", pending, ctx.Err())
	}
}

// Close waits for pending publishes and drains the NATS connection
func (p *NATSPublisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := p.Flush(ctx); err != nil {
		p.logger.Warn("Closing NATS with unacknowledged events", "error", err.Error())
	}

	if p.nc != nil {
		p.logger.Info("Closing NATS connection")
		return p.nc.Drain()
	}
	return nil
}
