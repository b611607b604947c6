// Package replicate copies accepted envelopes to every peer broker, best
// effort. There is no acknowledgement, no quorum, and no retry; peers that
// miss an envelope simply never hold that replica.
package replicate
