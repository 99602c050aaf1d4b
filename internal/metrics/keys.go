package metrics

import "fmt"

const (
	// KeyPrefixMetrics is the prefix for all metrics keys
	KeyPrefixMetrics = "newsroom:metrics"
	// KeyPrefixServed is the prefix for served-response counters
	KeyPrefixServed = "served"
	// KeyPrefixMissed is the prefix for not-found counters
	KeyPrefixMissed = "missed"
	// CountersTTLDays is the TTL in days for serve counters
	CountersTTLDays = 30
)

// Endpoint classes tracked by the serve counters.
const (
	EndpointHome    = "home"
	EndpointSection = "section"
	EndpointArticle = "article"
)

// Endpoints lists every tracked endpoint class, in overview order.
var Endpoints = []string{EndpointHome, EndpointSection, EndpointArticle}

// RedisKeys provides methods to build Redis keys consistently
type RedisKeys struct {
	prefix string
}

// NewRedisKeys creates a new RedisKeys instance
func NewRedisKeys(prefix string) *RedisKeys {
	return &RedisKeys{prefix: prefix}
}

// Served returns the Redis key for the served counter of an endpoint class
func (k *RedisKeys) Served(endpoint string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixServed, endpoint)
}

// Missed returns the Redis key for the not-found counter of an endpoint class
func (k *RedisKeys) Missed(endpoint string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixMissed, endpoint)
}
