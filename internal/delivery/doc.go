// Package delivery pushes envelopes to bound sessions and serves pulls from
// the message pool. The pool is the ground truth; push is an optimisation
// applied at publish time, never retried on a timer.
package delivery
