// Package mq owns the lifecycle of an administrative session with one queue
// manager.
//
// Top-level types:
//   - Target: host, port, queue manager, channel, optional credentials and
//     TLS options; immutable once built
//   - Dialer / Handle / Executor: the transport capability the session is
//     built on (see package mqweb for the HTTPS implementation)
//   - Session: one live connection; owns the Handle and a lazily created
//     Executor that is memoized for the life of the session
//
// Connect(ctx, dialer, target) dials, then pings the queue manager through the
// executor. Any failure is returned as *ConnectionError and the half-open
// handle is closed. Connect never retries.
//
// Disconnect is nil-safe, idempotent and never fails: teardown errors are
// logged and swallowed because it runs on cleanup paths.
//
// WithSession(ctx, dialer, target, fn) is the scoped form: Disconnect runs
// exactly once on every exit path of fn, including panics.
package mq
