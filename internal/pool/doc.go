// Package pool holds the in-memory message pool, the authoritative queue of
// undelivered envelopes. Envelopes are keyed by id for duplicate detection
// and removal; each entry carries an insertion sequence number, and
// per-recipient draining scans the map and returns matches in that order.
package pool
