package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// Client maps each pipeline queue onto a Pub/Sub topic of the same name and
// a subscription named <queue><suffix>.
type Client struct {
	client         *pubsub.Client
	projectID      string
	suffix         string
	maxOutstanding int
	queues         []string
	consumeBackoff time.Duration
	publishTimeout time.Duration
	logg           *logger.Logger

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscriptions   = errors.New("pubsub subscription name is required")
)

// NewClient creates a Pub/Sub v2 client and ensures the subscriptions for
// every pipeline queue exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, broker config.BrokerConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:         psClient,
		projectID:      gcp.ProjectID,
		suffix:         cfg.SubscriptionSuffix,
		maxOutstanding: cfg.MaxOutstandingMessages,
		queues:         broker.Queues(),
		consumeBackoff: broker.ConsumerErrorBackoff,
		publishTimeout: broker.PublishTimeout,
		logg:           logg,
		publishers:     make(map[string]*pubsub.Publisher),
	}
	if c.consumeBackoff <= 0 {
		c.consumeBackoff = time.Second
	}
	if c.publishTimeout <= 0 {
		c.publishTimeout = 5 * time.Second
	}

	if err := c.ensureSubscriptionsConfigured(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", gcp.ProjectID), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) ensureSubscriptionsConfigured(ctx context.Context) error {
	names := subscriptionNames(c.queues, c.suffix)
	if len(names) == 0 {
		return errNoSubscriptions
	}
	for _, name := range names {
		if err := c.ensureSubscriptionExists(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func subscriptionNames(queues []string, suffix string) []string {
	names := []string{}
	for _, queue := range queues {
		if name := subscriptionID(queue, suffix); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func subscriptionID(queue, suffix string) string {
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return ""
	}
	return queue + strings.TrimSpace(suffix)
}

func (c *Client) ensureSubscriptionExists(ctx context.Context, name string) error {
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return fmt.Errorf("subscription %q not configured", name)
	}

	_, err := c.client.SubscriptionAdminClient.GetSubscription(
		ctx,
		&pubsubpb.GetSubscriptionRequest{Subscription: fullName},
	)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", name)
		}
		return fmt.Errorf("checking subscription %q: %w", name, err)
	}
	return nil
}

// Publish waits for the server-assigned id, which is Pub/Sub's confirmation
// that the message is durably stored.
func (c *Client) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	publisher, err := c.publisher(queue)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	if _, err := publisher.Publish(pubCtx, toPubSubMessage(msg)).Get(pubCtx); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (c *Client) publisher(queue string) (*pubsub.Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[queue]; ok {
		return p, nil
	}
	fullName := c.topicResourceName(queue)
	if fullName == "" {
		return nil, fmt.Errorf("topic for queue %q not configured", queue)
	}
	p := c.client.Publisher(fullName)
	c.publishers[queue] = p
	return p, nil
}

// Consume runs the streaming pull for queue's subscription until ctx is
// cancelled, restarting it after ConsumerErrorBackoff when it fails.
func (c *Client) Consume(ctx context.Context, queue string, handler messaging.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	fullName := c.subscriptionResourceName(subscriptionID(queue, c.suffix))
	if fullName == "" {
		return fmt.Errorf("subscription for queue %q not configured", queue)
	}

	sub := c.client.Subscriber(fullName)
	if c.maxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = c.maxOutstanding
	}

	for {
		err := sub.Receive(ctx, func(msgCtx context.Context, m *pubsub.Message) {
			if handler(msgCtx, fromPubSubMessage(m)) == messaging.Requeue {
				m.Nack()
				return
			}
			m.Ack()
		})
		if ctx.Err() != nil {
			return nil
		}
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{"queue": queue, "retry_in": c.consumeBackoff.String()})
			c.logg.Error(logCtx, "pubsub receive stopped, restarting", err)
		}
		timer := time.NewTimer(c.consumeBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Ping verifies Pub/Sub connectivity by checking configured subscriptions exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureSubscriptionsConfigured(ctx)
}

// Close flushes publishers and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for _, p := range c.publishers {
		p.Stop()
	}
	c.publishers = map[string]*pubsub.Publisher{}
	c.mu.Unlock()

	var err error
	err = multierr.Append(err, c.client.Close())
	return err
}

func (c *Client) subscriptionResourceName(name string) string {
	return resourceName(c.projectID, "subscriptions", name)
}

func (c *Client) topicResourceName(name string) string {
	return resourceName(c.projectID, "topics", name)
}

func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", p, kind, n)
}

var _ messaging.Broker = (*Client)(nil)
