package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kossiva/authcore"
)

var (
	// ErrNotFound aliases the engine sentinel so callers can match either.
	ErrNotFound    = authcore.ErrAccountNotFound
	ErrConflict    = authcore.ErrAccountExists
	ErrUnavailable = errors.New("store: redis unavailable")
)

// Accounts is a Redis implementation of [authcore.AccountStore].
type Accounts struct {
	redis  redis.UniversalClient
	prefix string
}

// NewAccounts returns an account store keyed under prefix (default "ac").
func NewAccounts(redisClient redis.UniversalClient, prefix string) *Accounts {
	if prefix == "" {
		prefix = "ac"
	}
	return &Accounts{
		redis:  redisClient,
		prefix: prefix,
	}
}

var _ authcore.AccountStore = (*Accounts)(nil)

func (s *Accounts) recordKey(id string) string {
	return s.prefix + ":acct:" + id
}

func (s *Accounts) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Accounts) refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":refresh:" + base64.RawURLEncoding.EncodeToString(sum[:])
}

func (s *Accounts) adminSetKey() string {
	return s.prefix + ":admins"
}

// accountRecord is the stored shape of an account. It exists because the
// public Account type hides its sensitive fields from JSON.
type accountRecord struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Password      string    `json:"password"`
	Status        string    `json:"status"`
	Role          string    `json:"role"`
	Verified      bool      `json:"verified"`
	Federated     string    `json:"federated,omitempty"`
	LoginAttempts int       `json:"login_attempts"`
	LockUntil     time.Time `json:"lock_until"`
	Verification  string    `json:"verification_token,omitempty"`
	PasswordReset string    `json:"password_reset_token,omitempty"`
	SessionToken  string    `json:"session_token,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	LastLogin     time.Time `json:"last_login"`
	LastSeen      time.Time `json:"last_seen"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func encodeAccount(a *authcore.Account) ([]byte, error) {
	return json.Marshal(accountRecord{
		ID:            a.ID,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Password:      a.Password,
		Status:        string(a.Status),
		Role:          string(a.Role),
		Verified:      a.Verified,
		Federated:     a.Federated,
		LoginAttempts: a.LoginAttempts,
		LockUntil:     a.LockUntil,
		Verification:  a.VerificationToken,
		PasswordReset: a.PasswordResetToken,
		SessionToken:  a.SessionToken,
		RefreshToken:  a.RefreshToken,
		LastLogin:     a.LastLogin,
		LastSeen:      a.LastSeen,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	})
}

func decodeAccount(data []byte) (*authcore.Account, error) {
	var r accountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("store: corrupt account record: %v", err)
	}
	return &authcore.Account{
		ID:                 r.ID,
		Email:              r.Email,
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Password:           r.Password,
		Status:             authcore.AccountStatus(r.Status),
		Role:               authcore.Role(r.Role),
		Verified:           r.Verified,
		Federated:          r.Federated,
		LoginAttempts:      r.LoginAttempts,
		LockUntil:          r.LockUntil,
		VerificationToken:  r.Verification,
		PasswordResetToken: r.PasswordReset,
		SessionToken:       r.SessionToken,
		RefreshToken:       r.RefreshToken,
		LastLogin:          r.LastLogin,
		LastSeen:           r.LastSeen,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

// Create stores a new account. The email index entry is claimed first with
// SETNX so two concurrent signups for the same address cannot both win.
func (s *Accounts) Create(ctx context.Context, a *authcore.Account) error {
	if a.ID == "" || a.Email == "" {
		return errors.New("store: account id and email are required")
	}

	encoded, err := encodeAccount(a)
	if err != nil {
		return err
	}

	claimed, err := s.redis.SetNX(ctx, s.emailKey(a.Email), a.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !claimed {
		return ErrConflict
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.recordKey(a.ID), encoded, 0)
	if a.RefreshToken != "" {
		pipe.Set(ctx, s.refreshKey(a.RefreshToken), a.ID, 0)
	}
	if a.Role == authcore.RoleAdmin {
		pipe.SAdd(ctx, s.adminSetKey(), a.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Update rewrites the account record and reconciles the refresh-token and
// admin indexes against the previously stored state.
func (s *Accounts) Update(ctx context.Context, a *authcore.Account) error {
	prev, err := s.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}

	a.UpdatedAt = time.Now().UTC()
	encoded, err := encodeAccount(a)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.recordKey(a.ID), encoded, 0)

	if prev.RefreshToken != a.RefreshToken {
		if prev.RefreshToken != "" {
			pipe.Del(ctx, s.refreshKey(prev.RefreshToken))
		}
		if a.RefreshToken != "" {
			pipe.Set(ctx, s.refreshKey(a.RefreshToken), a.ID, 0)
		}
	}

	if prev.Role != a.Role {
		if a.Role == authcore.RoleAdmin {
			pipe.SAdd(ctx, s.adminSetKey(), a.ID)
		} else {
			pipe.SRem(ctx, s.adminSetKey(), a.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// GetByID loads one account.
func (s *Accounts) GetByID(ctx context.Context, id string) (*authcore.Account, error) {
	data, err := s.redis.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeAccount(data)
}

// GetByEmail resolves the email index and loads the account.
func (s *Accounts) GetByEmail(ctx context.Context, email string) (*authcore.Account, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// GetByRefreshToken resolves the hashed refresh-token index and loads the
// account. A stale index entry (record rotated between the two reads) is
// reported as not found.
func (s *Accounts) GetByRefreshToken(ctx context.Context, token string) (*authcore.Account, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	id, err := s.redis.Get(ctx, s.refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.RefreshToken != token {
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete removes the account record and every index entry derived from it.
func (s *Accounts) Delete(ctx context.Context, id string) error {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.recordKey(id))
	pipe.Del(ctx, s.emailKey(a.Email))
	if a.RefreshToken != "" {
		pipe.Del(ctx, s.refreshKey(a.RefreshToken))
	}
	pipe.SRem(ctx, s.adminSetKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// FindAdmin returns an arbitrary admin account, or ErrNotFound when the
// admin set is empty.
func (s *Accounts) FindAdmin(ctx context.Context) (*authcore.Account, error) {
	id, err := s.redis.SRandMember(ctx, s.adminSetKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetByID(ctx, id)
}
