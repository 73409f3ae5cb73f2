package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRefreshRotatesCredential(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	login, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.clock.Advance(time.Minute)

	refreshed, err := env.engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected a new access token")
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if got := env.store.snapshot(t, acct.ID).RefreshToken; got != refreshed.RefreshToken {
		t.Fatal("rotated token not persisted")
	}

	// Refresh is activity, not a login: LastSeen moves, LastLogin stays.
	stored := env.store.snapshot(t, acct.ID)
	if !stored.LastSeen.Equal(env.clock.Now()) {
		t.Fatalf("LastSeen = %v, want %v", stored.LastSeen, env.clock.Now())
	}
	if !stored.LastLogin.Equal(env.clock.Now().Add(-time.Minute)) {
		t.Fatalf("LastLogin = %v, want the original login time", stored.LastLogin)
	}
}

func TestRefreshRejectsRotatedToken(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	login, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.clock.Advance(time.Minute)
	if _, err := env.engine.Refresh(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The signature on the old token is still valid; only the stored
	// instance is honored.
	if _, err := env.engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for a rotated token", err)
	}
}

func TestRefreshRotatedTokenHasShorterLifetime(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	login, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := env.engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// The rotated token lives 24h, not the full 7d.
	env.clock.Advance(25 * time.Hour)
	if _, err := env.engine.Refresh(context.Background(), refreshed.RefreshToken); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for an expired rotated token", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := env.engine.Refresh(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized for an empty token", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	acct := env.verified(t, "alice@example.com")

	login, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := env.engine.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got := env.store.snapshot(t, acct.ID).RefreshToken; got != "" {
		t.Fatal("refresh token not revoked")
	}
	if _, err := env.engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden after logout", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.verified(t, "alice@example.com")

	login, err := env.engine.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.engine.Logout(context.Background(), login.RefreshToken); err != nil {
			t.Fatalf("Logout #%d: %v", i+1, err)
		}
	}
	if err := env.engine.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout with empty token: %v", err)
	}
}
