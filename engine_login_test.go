package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginSuccessIssuesTokenPair(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	result, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.VerificationRequired {
		t.Fatal("verified account should not require verification")
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}

	stored := env.store.snapshot(t, acct.ID)
	if stored.RefreshToken != result.RefreshToken {
		t.Fatal("refresh token not persisted")
	}
	if !stored.LastSeen.Equal(env.clock.Now()) {
		t.Fatalf("LastSeen = %v, want %v", stored.LastSeen, env.clock.Now())
	}
	if !stored.LastLogin.Equal(env.clock.Now()) {
		t.Fatalf("LastLogin = %v, want %v", stored.LastLogin, env.clock.Now())
	}
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	if _, err := env.engine.Login(context.Background(), "  ALICE@Example.COM ", "correct-horse"); err != nil {
		t.Fatalf("Login with folded email: %v", err)
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Login(context.Background(), "ghost@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	// The generic sentinel, not the counted variant: unknown addresses must
	// not reveal an attempt counter.
	var cErr *CredentialsError
	if errors.As(err, &cErr) {
		t.Fatal("unknown account must not expose remaining attempts")
	}
}

func TestLoginWrongPasswordCountsDown(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	for want := 4; want >= 1; want-- {
		_, err := env.engine.Login(context.Background(), "alice@example.com", "wrong")
		var cErr *CredentialsError
		if !errors.As(err, &cErr) {
			t.Fatalf("attempt %d: err = %v, want CredentialsError", 5-want, err)
		}
		if cErr.RemainingAttempts != want {
			t.Fatalf("RemainingAttempts = %d, want %d", cErr.RemainingAttempts, want)
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatal("CredentialsError must match ErrInvalidCredentials")
		}
	}
}

func TestLoginLocksAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	for i := 0; i < 4; i++ {
		_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")
	}

	_, err := env.engine.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}

	stored := env.store.snapshot(t, acct.ID)
	if !stored.Locked(env.clock.Now()) {
		t.Fatal("account should be locked")
	}

	// The right password is rejected while the lock holds, with the minutes
	// remaining reported.
	_, err = env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	var lErr *LockoutError
	if !errors.As(err, &lErr) {
		t.Fatalf("err = %v, want LockoutError", err)
	}
	if lErr.MinutesLeft != 10 {
		t.Fatalf("MinutesLeft = %d, want 10", lErr.MinutesLeft)
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("LockoutError must match ErrAccountLocked")
	}
}

func TestLoginLockHoldsThroughUnlockBuffer(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")
	}

	// Exactly at the stored deadline the buffer still rejects the login.
	env.clock.Advance(10 * time.Minute)
	_, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked inside buffer", err)
	}
}

func TestLoginLockExpiresAndResets(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")
	}

	env.clock.Advance(10*time.Minute + 6*time.Second)

	if _, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login after lock expiry: %v", err)
	}

	stored := env.store.snapshot(t, acct.ID)
	if stored.LoginAttempts != 0 || !stored.LockUntil.IsZero() {
		t.Fatalf("counters not reset: attempts=%d lockUntil=%v", stored.LoginAttempts, stored.LockUntil)
	}
}

func TestLoginExpiredLockWrongPasswordStartsFreshWindow(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")
	}
	env.clock.Advance(11 * time.Minute)

	_, err := env.engine.Login(context.Background(), "alice@example.com", "wrong")
	var cErr *CredentialsError
	if !errors.As(err, &cErr) {
		t.Fatalf("err = %v, want CredentialsError", err)
	}
	if cErr.RemainingAttempts != 4 {
		t.Fatalf("RemainingAttempts = %d, want 4 after reset", cErr.RemainingAttempts)
	}
}

func TestLoginSuccessResetsAttemptCounter(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")
	_, _ = env.engine.Login(context.Background(), "alice@example.com", "wrong")

	if _, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if got := env.store.snapshot(t, acct.ID).LoginAttempts; got != 0 {
		t.Fatalf("LoginAttempts = %d, want 0", got)
	}
}

func TestLoginUnverifiedReturnsSessionToken(t *testing.T) {
	env := newTestEnv(t)
	result := env.signup(t, "bob@example.com")

	login, err := env.engine.Login(context.Background(), "bob@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !login.VerificationRequired {
		t.Fatal("expected VerificationRequired")
	}
	if login.SessionToken == "" {
		t.Fatal("expected a session token")
	}
	if login.AccessToken != "" || login.RefreshToken != "" {
		t.Fatal("unverified login must not issue the access/refresh pair")
	}

	// The signup verification token is still valid, so no new mail goes out.
	if msgs := env.drainMail(t); len(msgs) != 0 {
		t.Fatalf("unexpected mail: %v", msgs)
	}
	stored := env.store.snapshot(t, result.Account.ID)
	if stored.VerificationToken == "" {
		t.Fatal("verification token should remain on the record")
	}
}

func TestLoginUnverifiedReissuesExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	result := env.signup(t, "bob@example.com")
	before := env.store.snapshot(t, result.Account.ID).VerificationToken

	// Past the action TTL the stored token no longer verifies.
	env.clock.Advance(11 * time.Minute)

	login, err := env.engine.Login(context.Background(), "bob@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !login.VerificationRequired {
		t.Fatal("expected VerificationRequired")
	}

	after := env.store.snapshot(t, result.Account.ID).VerificationToken
	if after == before {
		t.Fatal("expired verification token was not reissued")
	}

	msg := env.lastMail(t)
	if msg.To != "bob@example.com" {
		t.Fatalf("mail to %s, want bob@example.com", msg.To)
	}
}
