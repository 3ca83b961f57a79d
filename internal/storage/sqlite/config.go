package sqlite

import "time"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "warehouse.db"
	//   "file:warehouse.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// PingTimeout bounds the initial connectivity check. Zero means 5s.
	PingTimeout time.Duration
}
