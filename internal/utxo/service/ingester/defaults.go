package ingester

import "time"

const (
	defaultWriteRetries = 3
	defaultRetryBackoff = 2 * time.Second
)
