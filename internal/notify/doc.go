// Package notify delivers push notifications to a single Telegram chat.
//
// Delivery is synchronous and bounded: one HTTP call per message with a short
// timeout, rate-limited with a token bucket. Callers treat failures as
// best-effort and never retry. Without credentials, Disabled is used instead
// and every message is silently skipped.
package notify
