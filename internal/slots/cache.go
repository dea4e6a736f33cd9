package slots

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCenterCacheTTL bounds how stale the cached center list can get.
const DefaultCenterCacheTTL = 10 * time.Minute

const centersKey = "slots:centers:v1"

// CachedRepository serves ListCenters from Redis and delegates everything
// else. Redis failures fall through to the wrapped repository.
type CachedRepository struct {
	Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
	tracer trace.Tracer
}

// NewCachedRepository wraps repo with a Redis center cache.
func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCenterCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedRepository{
		Repository: repo,
		redis:      client,
		ttl:        ttl,
		logger:     logger,
		tracer:     otel.Tracer("idseva.internal.slots"),
	}
}

// ListCenters returns the cached center list, loading it on a miss.
func (c *CachedRepository) ListCenters(ctx context.Context) ([]recommend.Center, error) {
	ctx, span := c.tracer.Start(ctx, "slots.centers_cache")
	defer span.End()

	data, err := c.redis.Get(ctx, centersKey).Bytes()
	switch {
	case err == nil:
		var centers []recommend.Center
		if err := json.Unmarshal(data, &centers); err == nil {
			span.SetAttributes(attribute.Bool("idseva.cache_hit", true))
			return centers, nil
		}
		c.logger.Warn("discarding corrupt center cache")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("center cache read failed", "error", err)
	}

	span.SetAttributes(attribute.Bool("idseva.cache_hit", false))
	centers, err := c.Repository.ListCenters(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if data, err := json.Marshal(centers); err == nil {
		if err := c.redis.Set(ctx, centersKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("center cache write failed", "error", err)
		}
	}
	return centers, nil
}

// InvalidateCenters drops the cached center list.
func (c *CachedRepository) InvalidateCenters(ctx context.Context) error {
	return c.redis.Del(ctx, centersKey).Err()
}
