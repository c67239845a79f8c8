package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// RedisNotifier publishes alerts as JSON on a pub/sub channel so dashboards
// and other services can react to them.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier returns a notifier publishing on channel.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes the alert for r.
func (n *RedisNotifier) Notify(ctx context.Context, r models.Reading) error {
	payload, err := json.Marshal(BuildAlert(r))
	if err != nil {
		return fmt.Errorf("%w: marshal alert: %w", common.ErrNotification, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish alert: %w", common.ErrNotification, err)
	}
	return nil
}
