package gateway

import "time"

// nowUnix is the single clock read point for the upsert pipeline's
// created_at_ts default, kept as its own function so tests can see
// exactly where wall-clock time enters the package.
func nowUnix() int64 {
	return time.Now().Unix()
}
