// Package sessions tracks live duplex channels and the recipient code each
// one has claimed. Pushes and broadcasts look sessions up here; writes to a
// channel never happen under the registry lock.
package sessions
