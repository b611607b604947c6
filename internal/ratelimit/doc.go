// Package ratelimit admits or rejects requests per source address using a
// token bucket. Buckets are created lazily and garbage-collected after a
// full refill window with no requests from their source.
package ratelimit
