package redisx

import "time"

const (
	// Outstanding pickup code reservation: pickup:code:{code} -> order_id
	KeyPickupCode = "pickup:code:%s"

	// Cached order status: order_status:{order_id} -> {"status": "...", ...}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
