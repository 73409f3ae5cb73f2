package authcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/kossiva/authcore"
	"github.com/kossiva/authcore/mail"
	"github.com/kossiva/authcore/store"
)

// TestFullLifecycleAgainstRedisStore drives the whole account lifecycle
// through the Redis-backed stores: signup, blocked login, verification,
// login, refresh rotation, logout.
func TestFullLifecycleAgainstRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mailer := mail.NewChannel(16)

	engine, err := authcore.New().
		WithSecret([]byte("0123456789abcdef0123456789abcdef")).
		WithAccountStore(store.NewAccounts(rdb, "")).
		WithCooldownStore(store.NewCooldown(rdb, "")).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()

	// Signup leaves a pending account and a verification mail.
	signup, err := engine.CreateAccount(ctx, authcore.CreateAccountRequest{
		FirstName:       "Alice",
		LastName:        "Liddell",
		Email:           "alice@example.com",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	var verifyLink string
	select {
	case msg := <-mailer.C:
		verifyLink = msg.Link
	default:
		t.Fatal("expected a verification mail")
	}
	verifyTok := verifyLink[len("/auth/verify-email/"):]

	// Login before verification only yields the session token.
	login, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login before verification: %v", err)
	}
	if !login.VerificationRequired || login.AccessToken != "" {
		t.Fatalf("unexpected pre-verification result: %+v", login)
	}

	// The status page sees the pending verification.
	state, err := engine.SessionStatus(ctx, signup.Account.ID, login.SessionToken)
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if state.PendingReset {
		t.Fatal("expected a verification process")
	}

	if _, err := engine.ConfirmVerification(ctx, verifyTok); err != nil {
		t.Fatalf("ConfirmVerification: %v", err)
	}

	login, err = engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatal("expected the access/refresh pair")
	}

	refreshed, err := engine.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, login.RefreshToken); !errors.Is(err, authcore.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for the rotated-away token", err)
	}

	if err := engine.Logout(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := engine.Refresh(ctx, refreshed.RefreshToken); !errors.Is(err, authcore.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden after logout", err)
	}
}
