package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursegen-backend/internal/models"
)

// CourseChannel is the Redis pub/sub channel carrying events for one course.
func CourseChannel(courseID uuid.UUID) string {
	return "course_updates:" + courseID.String()
}

// RedisPublisher publishes course events on Redis. Publishing is best effort;
// failures are logged and never fail the operation that produced the event.
type RedisPublisher struct {
	redis  *redis.Client
	logger zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, logger zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{redis: client, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, courseID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error().Err(err).Str("type", msg.Type).Msg("failed to encode event")
		return
	}
	if err := p.redis.Publish(ctx, CourseChannel(courseID), data).Err(); err != nil {
		p.logger.Warn().Err(err).
			Str("course_id", courseID.String()).
			Str("type", msg.Type).
			Msg("failed to publish event")
	}
}
