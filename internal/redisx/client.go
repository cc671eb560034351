package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	// WithTimeout returns a copy; the original keeps the default.
	return r.WithTimeout(2 * time.Second)
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// IdemCache is the ingest fast path: a hit means this delivery was
// absorbed within the TTL window. Redis being down reads as a miss,
// the unique index stays authoritative.
type IdemCache struct{ RDB *redis.Client }

func (c IdemCache) Seen(ctx context.Context, storeID, externalOrderID string) bool {
	ok, _ := Exists(ctx, c.RDB, fmt.Sprintf(KeyIdemIngest, storeID, externalOrderID))
	return ok
}
