// Package reaper runs the periodic maintenance sweeps: expired envelopes,
// idle sessions, and stale rate-limit buckets. Sweeps of the same kind never
// overlap; each runs on its own single-goroutine schedule.
package reaper
