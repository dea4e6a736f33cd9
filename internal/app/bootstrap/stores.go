package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/bookings"
	"github.com/wolfman30/idseva-booking/internal/database"
	"github.com/wolfman30/idseva-booking/internal/slots"
	"github.com/wolfman30/idseva-booking/internal/updates"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Stores groups the repositories the services run on.
type Stores struct {
	Users    accounts.Repository
	Slots    slots.Repository
	Bookings bookings.Repository
	Updates  updates.Repository
	// Persistent is false when everything lives in process memory.
	Persistent bool
}

// BuildStores returns Postgres repositories when pool is set and in-memory
// ones seeded with the demo centers otherwise. A Redis client adds the
// center cache in front of the slot repository.
func BuildStores(pool database.PgxPool, redisClient *redis.Client, centerTTL time.Duration, logger *logging.Logger) Stores {
	if logger == nil {
		logger = logging.Default()
	}

	var stores Stores
	if pool != nil {
		stores = Stores{
			Users:      accounts.NewPostgresRepository(pool),
			Slots:      slots.NewPostgresRepository(pool),
			Bookings:   bookings.NewPostgresRepository(pool),
			Updates:    updates.NewPostgresRepository(pool),
			Persistent: true,
		}
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory stores (data is lost on restart)")
		slotRepo := slots.NewInMemoryRepository(slots.DemoCenters()...)
		stores = Stores{
			Users:    accounts.NewInMemoryRepository(),
			Slots:    slotRepo,
			Bookings: bookings.NewInMemoryRepository(slotRepo),
			Updates:  updates.NewInMemoryRepository(),
		}
	}

	if redisClient != nil {
		stores.Slots = slots.NewCachedRepository(stores.Slots, redisClient, centerTTL, logger)
	}
	return stores
}

// Ready returns a readiness probe over the configured backends.
func Ready(pool *pgxpool.Pool, redisClient *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return err
			}
		}
		return nil
	}
}
