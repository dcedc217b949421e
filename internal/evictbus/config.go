package evictbus

// Config holds Redis connection and channel settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Channel carries eviction requests, ResultChannel carries the outcomes.
	// An empty ResultChannel disables replies.
	Channel       string
	ResultChannel string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for the eviction bus
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		Channel:       "liveclass:evict",
		ResultChannel: "liveclass:evict:results",
		PoolSize:      4,
		MinIdleConns:  1,
	}
}
