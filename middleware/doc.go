// Package middleware exposes HTTP middleware adapters for access-token
// authorization built on top of authcore.Engine.
//
// # Guards
//
//   - [RequireAuth] — verifies the bearer access token and injects the
//     caller's identity into the request context.
//   - [RequireAdmin] — RequireAuth plus an admin role check.
//
// Each guard reads the Authorization header, calls Engine.Authenticate, and
// makes the resulting [authcore.Identity] available through
// [IdentityFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the account store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from
//     Engine.Authenticate and the role carried in the token.
package middleware
