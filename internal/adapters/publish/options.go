package publish

import "time"

const defaultTimeout = 2 * time.Second

// Option applies a configuration option to the RedisPublisher.
type Option func(*RedisPublisher)

// WithTimeout bounds a single publication.
func WithTimeout(d time.Duration) Option {
	return func(p *RedisPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}
