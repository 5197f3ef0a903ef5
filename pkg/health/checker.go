package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/demand-forecasting/pkg/common"
)

const checkTimeout = 2 * time.Second

// DatabaseChecker returns a health check function for the PostgreSQL pool
func DatabaseChecker(pool *pgxpool.Pool) common.CheckFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client redis.UniversalClient) common.CheckFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// NATSChecker reports whether the NATS connection is up
func NATSChecker(conn *nats.Conn) common.CheckFunc {
	return func(ctx context.Context) error {
		if conn == nil || !conn.IsConnected() {
			return errors.New("nats not connected")
		}
		return nil
	}
}
