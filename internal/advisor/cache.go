package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/logging"
	"github.com/nadmax/taskpulse/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	keyPrefix       = "taskpulse:advisor"
)

// Cache memoizes successful advisor replies in Redis, keyed by the need and
// a digest of the request. Redis failures degrade to uncached calls.
type Cache struct {
	next   engine.Advisor
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

var _ engine.Advisor = (*Cache)(nil)

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func NewCache(next engine.Advisor, client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    logging.Component("advisor"),
	}
}

func (c *Cache) Schedule(ctx context.Context, req engine.ScheduleRequest) ([]engine.ScheduleItem, error) {
	return cached(ctx, c, "schedule", req, c.next.Schedule)
}

func (c *Cache) Suggestions(ctx context.Context, req engine.SuggestionRequest) ([]string, error) {
	return cached(ctx, c, "suggestions", req, c.next.Suggestions)
}

func (c *Cache) BurnoutInsights(ctx context.Context, req engine.BurnoutRequest) (engine.BurnoutInsights, error) {
	return cached(ctx, c, "burnout", req, c.next.BurnoutInsights)
}

func (c *Cache) Estimate(ctx context.Context, req engine.EstimateRequest) (engine.Estimate, error) {
	return cached(ctx, c, "estimate", req, c.next.Estimate)
}

func (c *Cache) Coaching(ctx context.Context, req engine.CoachingRequest) (string, error) {
	return cached(ctx, c, "coaching", req, c.next.Coaching)
}

func cacheKey(need string, req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, need, hex.EncodeToString(sum[:])), nil
}

func cached[Req, Resp any](
	ctx context.Context,
	c *Cache,
	need string,
	req Req,
	call func(context.Context, Req) (Resp, error),
) (Resp, error) {
	key, err := cacheKey(need, req)
	if err != nil {
		return call(ctx, req)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var resp Resp
		if err := json.Unmarshal(raw, &resp); err == nil {
			metrics.RecordCacheLookup(need, true)
			return resp, nil
		}
		c.log.WarnEvent().Str("key", key).Msg("discarding unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.WarnEvent().Err(err).Str("need", need).Msg("advisor cache lookup failed")
	}
	metrics.RecordCacheLookup(need, false)

	resp, err := call(ctx, req)
	if err != nil {
		return resp, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return resp, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WarnEvent().Err(err).Str("need", need).Msg("advisor cache store failed")
	}

	return resp, nil
}
