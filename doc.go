// Package authcore implements the account and session lifecycle behind a
// web-application backend: signup with email verification, password login
// with automatic lockout, password reset, access/refresh token rotation,
// federated identity mapping, and profile management — all against a
// pluggable document-style account store.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Account, LoginResult, SessionState, etc.). Flow
// orchestration stays in Engine methods; token signing lives in token/,
// password hashing in password/, the Redis-backed account and cooldown
// stores in store/, and notification dispatch in mail/. HTTP routing,
// cookies, CORS, and templated email bodies belong to the caller — see
// examples/http-minimal for one wiring.
//
// # What this package must NOT do
//
//   - Render HTML, route requests, or manage cookies (the caller's job).
//   - Expose password hashes or raw store handles through its public API.
//   - Block indefinitely: every external call inherits the caller's
//     context and the stores carry their own timeouts.
package authcore
