package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hellodex/swapengine/model"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "swapengine:executions"

// RedisSink appends records to a Redis list, for deployments that want the
// audit trail off the local disk.
type RedisSink struct {
	client *redis.Client
	key    string
}

func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{client: client, key: key}
}

func (s *RedisSink) Append(ctx context.Context, rec model.ExecutionResult) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("rpush audit record: %w", err)
	}
	return nil
}
