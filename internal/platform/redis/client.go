// Package redis wraps go-redis with pool metrics. The client backs the
// shared access-decision cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"stewardship/internal/platform/config"
)

var (
	poolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stewardship_redis_pool_total_conns",
		Help: "Number of total connections in the pool",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stewardship_redis_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})
	poolEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stewardship_redis_pool_events_total",
		Help: "Pool hits, misses, timeouts and stale connection removals",
	}, []string{"event"})
)

// Client embeds *redis.Client so callers use the go-redis API directly.
type Client struct {
	*redis.Client
	lastStats *redis.PoolStats
}

// New dials Redis and pings it once. With no URL configured it returns a
// nil client and the in-process cache is used instead.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Client{Client: rdb}, nil
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	opts.MinIdleConns = cfg.MinIdleConns
	setIfPositive(&opts.PoolSize, cfg.PoolSize)
	setIfPositive(&opts.DialTimeout, cfg.DialTimeout)
	setIfPositive(&opts.ReadTimeout, cfg.ReadTimeout)
	setIfPositive(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func setIfPositive[T int | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RecordPoolStats publishes the pool gauges and the counter increments
// since the previous call.
func (c *Client) RecordPoolStats() {
	cur := c.PoolStats()
	poolTotalConns.Set(float64(cur.TotalConns))
	poolIdleConns.Set(float64(cur.IdleConns))

	prev := redis.PoolStats{}
	if c.lastStats != nil {
		prev = *c.lastStats
	}
	for event, pair := range map[string][2]uint32{
		"hit":     {cur.Hits, prev.Hits},
		"miss":    {cur.Misses, prev.Misses},
		"timeout": {cur.Timeouts, prev.Timeouts},
		"stale":   {cur.StaleConns, prev.StaleConns},
	} {
		if pair[0] > pair[1] {
			poolEvents.WithLabelValues(event).Add(float64(pair[0] - pair[1]))
		}
	}
	c.lastStats = cur
}

// RunPoolStats records pool statistics every interval until ctx is done.
func (c *Client) RunPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RecordPoolStats()
		}
	}
}
