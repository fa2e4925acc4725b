// Package visitor holds the visitor registry and the reconciliation logic
// that merges each polled snapshot into it.
//
// A Reconciler owns a Registry and decides, per observation, whether the
// record was created or changed on one of the tracked fields (status,
// resonanz, hand_found). Only then are the side effects triggered: a push
// notification (unless the name is excluded) and an audit append. Both sinks
// are best-effort; their failures are logged and swallowed.
//
// DisplayFilter is independent of the reconciliation outcome and only
// suppresses repeated terminal lines.
//
// Nothing here is safe for concurrent use. The poller owns all state and
// drives it from a single goroutine.
package visitor
