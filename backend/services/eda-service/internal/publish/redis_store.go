package publish

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const latestRun = "latest"

// RedisStore caches msgpack-encoded summaries per run and under a "latest" key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns redis-backed summary store. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// SummaryKey returns the cache key of a run.
func SummaryKey(runID string) string {
	return fmt.Sprintf("eda:summary:%s", runID)
}

// Publish stores the summary under its run key and the latest key atomically.
func (s *RedisStore) Publish(ctx context.Context, summary Summary) error {
	data, err := EncodeSummary(summary)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SummaryKey(summary.RunID), data, s.ttl)
		pipe.Set(ctx, SummaryKey(latestRun), data, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: store summary %s: %w", summary.RunID, err)
	}
	return nil
}

// Get returns the cached summary of runID.
func (s *RedisStore) Get(ctx context.Context, runID string) (*Summary, error) {
	data, err := s.client.Get(ctx, SummaryKey(runID)).Bytes()
	if err != nil {
		return nil, err
	}
	return DecodeSummary(data)
}

// Latest returns the most recently published summary.
func (s *RedisStore) Latest(ctx context.Context) (*Summary, error) {
	return s.Get(ctx, latestRun)
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// EncodeSummary serialises a summary as msgpack keyed by the json field names.
func EncodeSummary(summary Summary) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSummary is the inverse of EncodeSummary.
func DecodeSummary(data []byte) (*Summary, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var summary Summary
	if err := dec.Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
