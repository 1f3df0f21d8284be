package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// RedisPingResult is the minimal return type of a Redis client's Ping.
type RedisPingResult interface{ Err() error }

// RedisClient is the minimal interface for a Redis client needed for readiness.
type RedisClient interface {
	Ping(ctx context.Context) RedisPingResult
}

type goRedisClient struct{ rdb *redis.Client }

func (c goRedisClient) Ping(ctx context.Context) RedisPingResult { return c.rdb.Ping(ctx) }

// NewRedisClient adapts a go-redis client; nil stays nil.
func NewRedisClient(rdb *redis.Client) RedisClient {
	if rdb == nil {
		return nil
	}
	return goRedisClient{rdb: rdb}
}

// BuildReadinessChecks returns the checks served by /readyz: the active
// provider's credential and, when quota is enabled, Redis.
func BuildReadinessChecks(p domain.Provider, rdb RedisClient) map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"provider": func(context.Context) error {
			if p == nil {
				return fmt.Errorf("provider not configured")
			}
			if !p.Configured() {
				return fmt.Errorf("%s api key missing", p.Name())
			}
			return nil
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
