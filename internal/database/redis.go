package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients keeps queue traffic (BLPOP, locks, publishes) and long-lived
// subscriptions on separate connection pools so a blocked pop never starves
// a subscriber.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	queueOpt := *opt
	queueOpt.ReadTimeout = 10 * time.Second
	queueClient := redis.NewClient(&queueOpt)

	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)

	clients := &RedisClients{Queue: queueClient, PubSub: pubsubClient}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := clients.Ping(ctx); err != nil {
		clients.Close()
		return nil, err
	}
	return clients, nil
}

// Ping checks both connection pools.
func (r *RedisClients) Ping(ctx context.Context) error {
	if err := r.Queue.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis (queue): %w", err)
	}
	if err := r.PubSub.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}
	return nil
}

func (r *RedisClients) Close() error {
	return errors.Join(r.Queue.Close(), r.PubSub.Close())
}
