package authcore

import (
	"context"
	"errors"
	"time"
)

// FederatedLogin signs in (or signs up) an account asserted by an external
// identity provider. Providers differ only in the profile they hand over,
// so one path serves all of them.
//
// First-time profiles create an account without a usable password. A
// provider-verified email makes the account active immediately; otherwise
// it goes through the same verification flow as a password signup.
func (e *Engine) FederatedLogin(ctx context.Context, profile FederatedProfile) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if profile.Provider == "" || profile.Email == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"provider": "provider and email are required",
		}}
	}

	email := normalizeEmail(profile.Email)
	now := e.now()

	acct, err := e.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// An existing password account stays a password account; only the
		// federated marker is added so both entries work.
		if acct.Federated == "" {
			acct.Federated = profile.Provider
		}

	case errors.Is(err, ErrAccountNotFound):
		acct, err = e.createFederated(ctx, profile, email, now)
		if err != nil {
			return nil, err
		}

	default:
		return nil, mapStoreErr(err)
	}

	if !acct.Verified {
		return e.unverifiedLogin(ctx, acct, now)
	}

	return e.issueSession(ctx, acct, now, auditOpFederatedLogin)
}

func (e *Engine) createFederated(ctx context.Context, profile FederatedProfile, email string, now time.Time) (*Account, error) {
	acct := &Account{
		ID:        e.newID(),
		Email:     email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Status:    StatusPending,
		Role:      e.config.Signup.DefaultRole,
		Federated: profile.Provider,
		Verified:  profile.EmailVerified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if acct.Verified {
		acct.Status = StatusActive
	}

	if err := e.accounts.Create(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	e.notifyAdmin(ctx, acct)

	return acct, nil
}
