package redisx

import "time"

const (
	// Webhook ingestion fast-path: idem:order:ingest:{store_id}:{external_order_id} -> order_id.
	// The DB unique index stays the source of truth.
	KeyIdemIngest = "idem:order:ingest:%s:%s"

	// Evaluated progress cache: order:progress:{order_id} -> order JSON
	KeyOrderProgress = "order:progress:%s"
)

var (
	TTLIdempotency   = 24 * time.Hour
	TTLProgressCache = 2 * time.Minute
)
