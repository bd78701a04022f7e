package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/wms-platform/checkout-service/pkg/resilience"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
	TaskQueue string

	// Dial retries while the frontend comes up
	DialRetry *resilience.RetryConfig
}

// DefaultConfig returns a Config with local defaults
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "checkout-worker",
		TaskQueue: TaskQueue,
		DialRetry: resilience.DefaultRetryConfig(),
	}
}

// TaskQueue is the queue checkout activities are served from
const TaskQueue = "checkout-queue"

// ActivityNames are the registered names of the checkout activities
var ActivityNames = struct {
	QuoteShipping  string
	ValidateOrder  string
	ProcessPayment string
	RefundPayment  string
}{
	QuoteShipping:  "QuoteShipping",
	ValidateOrder:  "ValidateOrder",
	ProcessPayment: "ProcessPayment",
	RefundPayment:  "RefundPayment",
}

// ClientOptions builds SDK options routing SDK logs through logger
func (c *Config) ClientOptions(logger *slog.Logger) client.Options {
	options := client.Options{
		HostPort:  c.HostPort,
		Namespace: c.Namespace,
		Identity:  c.Identity,
	}
	if logger != nil {
		options.Logger = log.NewStructuredLogger(logger)
	}
	return options
}

// Client wraps the Temporal client
type Client struct {
	client client.Client
	config *Config
}

// NewClient dials Temporal, retrying with backoff per config.DialRetry
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	retry := config.DialRetry
	if retry == nil {
		retry = &resilience.RetryConfig{MaxAttempts: 1}
	}

	c, err := resilience.RetryWithResult(ctx, retry, func() (client.Client, error) {
		c, err := client.DialContext(ctx, config.ClientOptions(logger))
		if err != nil && logger != nil {
			logger.Warn("Temporal dial failed", "hostPort", config.HostPort, "error", err)
		}
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{client: c, config: config}, nil
}

// Client returns the underlying Temporal client
func (c *Client) Client() client.Client {
	return c.client
}

// NewWorker creates a worker on the configured task queue
func (c *Client) NewWorker(options worker.Options) worker.Worker {
	return worker.New(c.client, c.config.TaskQueue, options)
}

// CheckHealth pings the Temporal frontend
func (c *Client) CheckHealth(ctx context.Context) error {
	_, err := c.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}
