// Package app wires the broker's dependency graph.
//
// It builds the concrete pool, registries, engine, replicator, limiter,
// reaper and front door from Config, exposing them via the Wire struct for
// the command layer to run.
package app
