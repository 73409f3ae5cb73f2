package authcore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrTooManyAttempts is returned on the failure that trips the lockout threshold.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	// ErrAccountExists is returned when signup hits an already registered email.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned for tokens that fail parsing or signature checks.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrInvalidLink is returned when an action token no longer maps to an account.
	ErrInvalidLink = errors.New("invalid link")
	// ErrCooldown is returned when an action token is requested inside the cooldown window.
	ErrCooldown = errors.New("action token cooldown active")
	// ErrUnauthorized is returned when an operation requires a session that is absent.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a presented credential does not match the caller.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionExpired is returned when a status-polling session token is older than its lifetime.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoActiveProcess is returned by status queries when neither token pair is live.
	ErrNoActiveProcess = errors.New("no active verification or reset process")
	// ErrDeliveryFailure is returned when the notification dispatcher reports failure.
	// The action token has already been persisted, so a resend is safe.
	ErrDeliveryFailure = errors.New("notification delivery failed")
	// ErrAlreadyVerified is returned when a verification-only operation targets a verified account.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrEngineNotReady is returned when a required collaborator was never wired.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrServerError is the catch-all mapped to unexpected collaborator failures.
	ErrServerError = errors.New("internal server error")
)

// CredentialsError is an ErrInvalidCredentials with the number of attempts
// left before the account locks.
type CredentialsError struct {
	RemainingAttempts int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid email or password (%d attempts remaining)", e.RemainingAttempts)
}

// Is reports a match against [ErrInvalidCredentials].
func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// LockoutError is an ErrAccountLocked carrying the minutes left until the
// lock expires, rounded up the way the lock message reports them.
type LockoutError struct {
	MinutesLeft int
}

func (e *LockoutError) Error() string {
	unit := "minutes"
	if e.MinutesLeft == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("account locked, try again in %d %s", e.MinutesLeft, unit)
}

// Is reports a match against [ErrAccountLocked].
func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}

// CooldownError is an ErrCooldown carrying the seconds left before another
// action token may be issued.
type CooldownError struct {
	SecondsLeft int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("wait %d seconds before requesting another token", e.SecondsLeft)
}

// Is reports a match against [ErrCooldown].
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// ValidationError carries per-field validation messages. Fields map input
// field names to a single human-readable problem each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}
