// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/pkg/types"
)

const defaultKeyPrefix = "report-engine:workflow:"

// RedisStore keeps each checkpoint as a JSON string under prefix+id, with
// an optional TTL. A sorted set under prefix+"index" orders workflows by
// update time for List.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// OpenRedis connects to cfg.DSN and verifies the connection.
func OpenRedis(ctx context.Context, cfg types.CheckpointConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.DSN,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.DSN, err)
	}
	return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL, logger), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }
func (r *RedisStore) indexKey() string     { return r.prefix + "index" }

// Save writes the state and records it in the index.
func (r *RedisStore) Save(ctx context.Context, st *types.ReportState) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(st.WorkflowID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(updated.UnixNano()), Member: st.WorkflowID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", st.WorkflowID, err)
	}
	r.logger.Debug("checkpoint saved", zap.String("workflow_id", st.WorkflowID), zap.String("phase", string(st.Phase)))
	return nil
}

// Load reads the state for id.
func (r *RedisStore) Load(ctx context.Context, id string) (*types.ReportState, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", id, err)
	}
	return decode(id, data)
}

// Delete removes the checkpoint and its index entry.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(id))
	pipe.ZRem(ctx, r.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting checkpoint %s: %w", id, err)
	}
	return nil
}

// List returns stored workflows, most recently updated first. Index
// entries whose checkpoint has expired are pruned.
func (r *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	var out []Summary
	var expired []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		st, err := decode(ids[i], []byte(s))
		if err != nil {
			r.logger.Warn("skipping unreadable checkpoint", zap.String("workflow_id", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, summarize(st))
	}
	if len(expired) > 0 {
		r.client.ZRem(ctx, r.indexKey(), expired...)
	}
	return out, nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
