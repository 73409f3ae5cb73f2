package authcore

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending     AccountStatus = "pending"
	StatusActive      AccountStatus = "active"
	StatusSuspended   AccountStatus = "suspended"
	StatusDeactivated AccountStatus = "deactivated"
)

// Role controls access to administrative operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is the persistent record the engine operates on. One record holds
// both identity fields and the mutable authentication state (lockout
// counters, pending tokens, the current refresh credential).
type Account struct {
	ID        string        `json:"id" redis:"id"`
	Email     string        `json:"email" redis:"email"`
	FirstName string        `json:"first_name" redis:"first_name"`
	LastName  string        `json:"last_name" redis:"last_name"`
	Password  string        `json:"-" redis:"password"`
	Status    AccountStatus `json:"status" redis:"status"`
	Role      Role          `json:"role" redis:"role"`
	Verified  bool          `json:"verified" redis:"verified"`

	// Federated holds the provider name when the account was created through
	// an external identity provider, empty for password accounts.
	Federated string `json:"federated,omitempty" redis:"federated"`

	LoginAttempts int       `json:"-" redis:"login_attempts"`
	LockUntil     time.Time `json:"-" redis:"lock_until"`

	// VerificationToken and PasswordResetToken are mutually exclusive. Issuing
	// one clears the other together with its session token.
	VerificationToken  string `json:"-" redis:"verification_token"`
	PasswordResetToken string `json:"-" redis:"password_reset_token"`
	SessionToken       string `json:"-" redis:"session_token"`

	RefreshToken string `json:"-" redis:"refresh_token"`

	// LastLogin is the time of the most recent successful login; LastSeen
	// also moves with refreshes and guarded requests.
	LastLogin time.Time `json:"last_login,omitempty" redis:"last_login"`
	LastSeen  time.Time `json:"last_seen,omitempty" redis:"last_seen"`
	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
}

// Locked reports whether the account is inside an active lockout window.
func (a *Account) Locked(now time.Time) bool {
	return !a.LockUntil.IsZero() && a.LockUntil.After(now)
}

// AccountStore is the persistence boundary the engine depends on.
// Implementations must return [ErrAccountNotFound] (or an error matching it
// via errors.Is) when a lookup has no result.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByRefreshToken(ctx context.Context, token string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) error
	// FindAdmin returns any one admin account, used for operational
	// notifications. ErrAccountNotFound when none exists.
	FindAdmin(ctx context.Context) (*Account, error)
}

// CooldownStore throttles action-token resends per account and scope.
type CooldownStore interface {
	Start(ctx context.Context, scope, accountID string, window time.Duration) error
	Remaining(ctx context.Context, scope, accountID string) (time.Duration, error)
	Clear(ctx context.Context, scope, accountID string) error
}

// CreateAccountRequest carries the signup input.
type CreateAccountRequest struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is the successful outcome of Login or FederatedLogin. When
// the account has not verified its email yet, VerificationRequired is true
// and SessionToken carries the status-polling credential instead of the
// access/refresh pair.
type LoginResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string

	VerificationRequired bool
	SessionToken         string
}

// SessionState is the outcome of SessionStatus: which process the presented
// credential belongs to and how much cooldown is left before a resend.
type SessionState struct {
	AccountID string
	Email     string
	// MaskedEmail is Email with most of the local part hidden, safe to show
	// on a status page.
	MaskedEmail string
	// PendingReset is true for a password-reset process, false for email
	// verification.
	PendingReset bool
	// CooldownSeconds is the time left before RequestActionToken will issue
	// again, zero when a resend is allowed now.
	CooldownSeconds int
	// ExpiresAt is when the active action token lapses and the emailed link
	// stops working.
	ExpiresAt time.Time
	// SessionToken is set when the status lookup was made with a raw action
	// token from an email link; it replaces the stored session credential.
	SessionToken string
}

// FederatedProfile is the normalized identity a federated provider callback
// hands to FederatedLogin.
type FederatedProfile struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
	// EmailVerified mirrors the provider's claim. Unverified federated
	// emails still go through the verification flow.
	EmailVerified bool
}

// ActionKind selects which pending process an action token drives.
type ActionKind string

const (
	ActionVerifyEmail   ActionKind = "verify_email"
	ActionPasswordReset ActionKind = "password_reset"
)
