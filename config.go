package authcore

import (
	"errors"
	"time"
)

// Config groups the tunables for every flow the engine runs. A Config is
// set up once, validated in Build, and treated as immutable afterwards.
type Config struct {
	Tokens   TokenConfig
	Lockout  LockoutConfig
	Password PasswordConfig
	Cooldown CooldownConfig
	Signup   SignupConfig
	Mail     MailConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls the lifetimes of every JWT class the engine issues.
type TokenConfig struct {
	// Secret signs all tokens (HS256).
	Secret []byte
	Issuer string

	// ActionTTL bounds the verification and reset tokens delivered by email.
	ActionTTL time.Duration
	// SessionTTL bounds the status-polling session token issued alongside an
	// action token.
	SessionTTL time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RotatedRefreshTTL is the lifetime of the replacement refresh token
	// minted by Refresh. Shorter than RefreshTTL so a rotated chain decays.
	RotatedRefreshTTL time.Duration

	// Leeway absorbs clock skew when verifying expiry.
	Leeway time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-login counter on the account record.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
	// UnlockBuffer pads the wait reported to callers so a retry issued right
	// at expiry does not race the unlock.
	UnlockBuffer time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MinLength is enforced at signup and reset.
	MinLength int
}

// CooldownConfig controls the resend throttle for action tokens.
type CooldownConfig struct {
	Window time.Duration
}

// SignupConfig controls account creation.
type SignupConfig struct {
	DefaultRole Role
	// NotifyAdmin sends a best-effort message to an admin account on each
	// signup. Delivery failure never fails the signup.
	NotifyAdmin bool
}

// MailConfig controls the links embedded in outgoing messages. The action
// token is appended to the base as a path segment.
type MailConfig struct {
	VerifyLinkBase string
	ResetLinkBase  string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Tokens: TokenConfig{
			ActionTTL:         10 * time.Minute,
			SessionTTL:        30 * time.Minute,
			AccessTTL:         1 * time.Hour,
			RefreshTTL:        7 * 24 * time.Hour,
			RotatedRefreshTTL: 24 * time.Hour,
			Leeway:            0,
		},
		Lockout: LockoutConfig{
			MaxAttempts:  5,
			LockDuration: 10 * time.Minute,
			UnlockBuffer: 5 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   6,
		},
		Cooldown: CooldownConfig{
			Window: 60 * time.Second,
		},
		Signup: SignupConfig{
			DefaultRole: RoleUser,
			NotifyAdmin: true,
		},
		Mail: MailConfig{
			VerifyLinkBase: "/auth/verify-email",
			ResetLinkBase:  "/auth/reset-password",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.Secret = cloneBytes(cfg.Tokens.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	// Tokens
	if len(c.Tokens.Secret) < 32 {
		return errors.New("Tokens Secret must be at least 32 bytes")
	}
	if c.Tokens.ActionTTL <= 0 {
		return errors.New("Tokens ActionTTL must be > 0")
	}
	if c.Tokens.SessionTTL <= 0 {
		return errors.New("Tokens SessionTTL must be > 0")
	}
	if c.Tokens.SessionTTL < c.Tokens.ActionTTL {
		return errors.New("Tokens SessionTTL must be >= ActionTTL")
	}
	if c.Tokens.AccessTTL <= 0 {
		return errors.New("Tokens AccessTTL must be > 0")
	}
	if c.Tokens.RefreshTTL <= 0 {
		return errors.New("Tokens RefreshTTL must be > 0")
	}
	if c.Tokens.RotatedRefreshTTL <= 0 {
		return errors.New("Tokens RotatedRefreshTTL must be > 0")
	}
	if c.Tokens.RotatedRefreshTTL > c.Tokens.RefreshTTL {
		return errors.New("Tokens RotatedRefreshTTL must be <= RefreshTTL")
	}
	if c.Tokens.Leeway < 0 {
		return errors.New("Tokens Leeway must be >= 0")
	}

	// Lockout
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.LockDuration <= 0 {
		return errors.New("Lockout LockDuration must be > 0")
	}
	if c.Lockout.UnlockBuffer < 0 {
		return errors.New("Lockout UnlockBuffer must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Cooldown
	if c.Cooldown.Window <= 0 {
		return errors.New("Cooldown Window must be > 0")
	}

	// Signup
	if c.Signup.DefaultRole != RoleUser && c.Signup.DefaultRole != RoleAdmin {
		return errors.New("Signup DefaultRole is invalid")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
