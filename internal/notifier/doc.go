// Package notifier resolves per-guild notification templates for
// lifecycle events and dispatches the rendered messages.
//
// Resolution is a pure lookup: no subscription for a (guild, category)
// pair is the expected majority case and yields a no-op, not an error.
// Dispatch is one-shot: the send result is reported and dropped, never
// retried.
package notifier
