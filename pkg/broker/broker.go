package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/pubsub"
	"github.com/DarkRecklessness/ShopService/pkg/rabbitmq"
)

// Open connects the broker selected by SHOP_BROKER_DRIVER.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (messaging.Broker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Broker.Driver)); driver {
	case config.BrokerDriverRabbitMQ, "":
		client, err := rabbitmq.New(ctx, cfg.RabbitMQ, cfg.Broker, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BrokerDriverPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, cfg.Broker, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", driver)
	}
}
