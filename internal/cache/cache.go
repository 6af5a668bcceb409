// Package cache memoizes engine output. The engine is a pure function of
// (profile, rule-table version), so entries are keyed by the normalized
// profile's content hash plus the rule version; a table bump changes the key
// and thereby invalidates every cached result.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/planreasoning/internal/engine"
)

// ResultCache defines the assessment memoization contract.
type ResultCache interface {
	Get(ctx context.Context, profileHash, ruleVersion string) (*engine.Assessment, bool, error)
	Set(ctx context.Context, profileHash, ruleVersion string, assessment *engine.Assessment) error
}

// Noop is a no-op implementation for deployments without Redis.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string, string) (*engine.Assessment, bool, error) {
	return nil, false, nil
}

// Set performs no action.
func (Noop) Set(context.Context, string, string, *engine.Assessment) error { return nil }

// Redis is a Redis-backed ResultCache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis cache against the given address.
func NewRedis(addr string, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Get fetches and decodes a cached assessment.
func (r *Redis) Get(ctx context.Context, profileHash, ruleVersion string) (*engine.Assessment, bool, error) {
	raw, err := r.client.Get(ctx, key(profileHash, ruleVersion)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var assessment engine.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return nil, false, err
	}
	return &assessment, true, nil
}

// Set stores an assessment with the configured TTL.
func (r *Redis) Set(ctx context.Context, profileHash, ruleVersion string, assessment *engine.Assessment) error {
	raw, err := json.Marshal(assessment)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(profileHash, ruleVersion), raw, r.ttl).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func key(profileHash, ruleVersion string) string {
	return "assessment:" + ruleVersion + ":" + profileHash
}
