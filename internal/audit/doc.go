// Package audit implements async event dispatching for security-relevant
// account operations.
//
// The Engine emits one [Event] per flow outcome (login, lockout, token
// issue, password reset, ...) and the [Dispatcher] relays them to a
// caller-supplied [Sink] without blocking the flow. This package owns
// buffering and delivery only; deciding which events to emit belongs to the
// Engine.
package audit
