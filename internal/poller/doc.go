// Package poller drives the reconciliation cycle.
//
// A cycle is fetch → reconcile → render pass over the whole registry. Cycles
// run strictly one after another on the caller's goroutine; the only
// suspension point is the wait until the next scheduled start. Cancelling
// the context ends the loop after the running cycle has finished.
package poller
