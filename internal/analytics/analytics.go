// Package analytics sends product analytics events (capture and identify).
//
// Delivery is fire-and-forget: calls never block the request path and
// failures are logged, never returned.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/DukeRupert/multitenancy/internal/metrics"
	"github.com/posthog/posthog-go"
)

// Client is the analytics collaborator used by the signup flow.
type Client interface {
	Capture(distinctID, event string, properties map[string]any)
	Identify(distinctID string, properties map[string]any)
}

// Noop discards every event. Used when no API key is configured.
type Noop struct{}

func (Noop) Capture(string, string, map[string]any) {}
func (Noop) Identify(string, map[string]any)        {}

const (
	// DefaultBatchSize is the number of buffered events that triggers a flush.
	DefaultBatchSize = 50

	// DefaultFlushInterval bounds how long an event waits in the buffer.
	DefaultFlushInterval = 5 * time.Second
)

// Config contains configuration for the HTTP client.
type Config struct {
	Host          string // e.g. https://app.posthog.com
	APIKey        string
	BatchSize     int
	FlushInterval time.Duration
	Transport     http.RoundTripper
}

// HTTPClient batches events through the PostHog SDK.
type HTTPClient struct {
	client posthog.Client
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewHTTPClient starts the background sender. Call Close to flush and stop it.
func NewHTTPClient(config Config, logger *slog.Logger) (*HTTPClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("analytics API key is required")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("analytics host is required")
	}

	// Set defaults
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}

	client, err := posthog.NewWithConfig(config.APIKey, posthog.Config{
		Endpoint:  config.Host,
		BatchSize: config.BatchSize,
		Interval:  config.FlushInterval,
		Transport: config.Transport,
		Logger:    sdkLogger{logger},
		Callback:  deliveryCallback{logger},
	})
	if err != nil {
		return nil, fmt.Errorf("analytics client: %w", err)
	}

	return &HTTPClient{
		client: client,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

func (c *HTTPClient) Capture(distinctID, event string, properties map[string]any) {
	c.enqueue(event, posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: posthog.Properties(properties),
		Timestamp:  time.Now().UTC(),
	})
}

func (c *HTTPClient) Identify(distinctID string, properties map[string]any) {
	c.enqueue("$identify", posthog.Identify{
		DistinctId: distinctID,
		Properties: posthog.Properties(properties),
		Timestamp:  time.Now().UTC(),
	})
}

func (c *HTTPClient) enqueue(event string, msg posthog.Message) {
	select {
	case <-c.closed:
		c.logger.Warn("analytics client closed, dropping event", "event", event)
		return
	default:
	}

	if err := c.client.Enqueue(msg); err != nil {
		c.logger.Warn("analytics event dropped", "event", event, "error", err)
	}
}

// Close flushes pending events and stops the sender. Safe to call more than
// once. Returns ctx.Err() when the flush outlives ctx.
func (c *HTTPClient) Close(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		c.closeOnce.Do(func() {
			close(c.closed)
			c.closeErr = c.client.Close()
		})
	}()

	select {
	case <-finished:
		return c.closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliveryCallback counts every message the SDK finishes with.
type deliveryCallback struct {
	logger *slog.Logger
}

func (d deliveryCallback) Success(posthog.APIMessage) {
	metrics.AnalyticsDelivered(1, nil)
}

func (d deliveryCallback) Failure(_ posthog.APIMessage, err error) {
	metrics.AnalyticsDelivered(1, err)
	d.logger.Error("failed to deliver analytics event", "error", err)
}

// sdkLogger routes the SDK's printf-style logs into slog.
type sdkLogger struct {
	logger *slog.Logger
}

func (l sdkLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "posthog")
}

func (l sdkLogger) Logf(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "component", "posthog")
}

func (l sdkLogger) Warnf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "posthog")
}

func (l sdkLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "posthog")
}

var (
	_ Client = Noop{}
	_ Client = (*HTTPClient)(nil)
)
