package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/kossiva/authcore/token"
)

// Login authenticates an email/password pair.
//
// Failed attempts are counted on the account; reaching the configured
// maximum locks it for the lock duration. A short buffer is added on top of
// the stored deadline so a lock never releases early across clock skew
// between app instances.
//
// When the account exists but its email is unverified, a correct password
// does not produce the access/refresh pair. Instead the result carries
// VerificationRequired plus a short-lived session token for the status
// page, and a fresh verification email is sent if the previous token
// already expired.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	now := e.now()

	acct, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn the same hashing work as a real comparison so a missing
			// account is not observable through response timing.
			e.hasher.DummyVerify(pass)
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditOpLogin, false, "", maskEmail(email), ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, mapStoreErr(err)
	}

	if !acct.LockUntil.IsZero() {
		if now.Before(acct.LockUntil.Add(e.config.Lockout.UnlockBuffer)) {
			left := minutesLeft(acct.LockUntil, now)
			e.metricInc(MetricLoginLocked)
			e.emitAudit(ctx, auditOpLogin, false, acct.ID, maskEmail(acct.Email), ErrAccountLocked, nil)
			return nil, &LockoutError{MinutesLeft: left}
		}

		// The lock expired; reset the counter before comparing so this
		// attempt starts a fresh window.
		acct.LoginAttempts = 0
		acct.LockUntil = time.Time{}
		if err := e.accounts.Update(ctx, acct); err != nil {
			return nil, mapStoreErr(err)
		}
	}

	ok, err := e.hasher.Verify(pass, acct.Password)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !ok {
		return nil, e.failLogin(ctx, acct, now)
	}

	if acct.LoginAttempts > 0 {
		acct.LoginAttempts = 0
		acct.LockUntil = time.Time{}
	}

	if !acct.Verified {
		return e.unverifiedLogin(ctx, acct, now)
	}

	return e.issueSession(ctx, acct, now, auditOpLogin)
}

// failLogin records a wrong password and decides between "n attempts left"
// and locking the account.
func (e *Engine) failLogin(ctx context.Context, acct *Account, now time.Time) error {
	acct.LoginAttempts++
	e.metricInc(MetricLoginFailure)

	if acct.LoginAttempts >= e.config.Lockout.MaxAttempts {
		acct.LockUntil = now.Add(e.config.Lockout.LockDuration)
		if err := e.accounts.Update(ctx, acct); err != nil {
			return mapStoreErr(err)
		}
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditOpLogin, false, acct.ID, maskEmail(acct.Email), ErrTooManyAttempts, nil)
		return ErrTooManyAttempts
	}

	if err := e.accounts.Update(ctx, acct); err != nil {
		return mapStoreErr(err)
	}
	e.emitAudit(ctx, auditOpLogin, false, acct.ID, maskEmail(acct.Email), ErrInvalidCredentials, nil)
	return &CredentialsError{RemainingAttempts: e.config.Lockout.MaxAttempts - acct.LoginAttempts}
}

// unverifiedLogin handles a correct password on an account that never
// confirmed its email. The verification token is reused while it is still
// valid; only a stale or missing one triggers a new email.
func (e *Engine) unverifiedLogin(ctx context.Context, acct *Account, now time.Time) (*LoginResult, error) {
	reissued := false
	if !e.actionTokenValid(acct.VerificationToken, token.PurposeVerifyEmail) {
		verifyTok, err := e.codec.Issue(token.Payload{
			AccountID: acct.ID,
			Email:     acct.Email,
			Role:      string(acct.Role),
			Purpose:   token.PurposeVerifyEmail,
		}, e.config.Tokens.ActionTTL)
		if err != nil {
			return nil, err
		}
		acct.VerificationToken = verifyTok
		acct.PasswordResetToken = ""
		reissued = true
	}

	sessionTok, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeSession,
	}, e.config.Tokens.SessionTTL)
	if err != nil {
		return nil, err
	}
	acct.SessionToken = sessionTok

	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	if reissued {
		_ = e.cooldowns.Start(ctx, actionScope(ActionVerifyEmail), acct.ID, e.config.Cooldown.Window)
		if err := e.sendActionMail(ctx, acct, ActionVerifyEmail, acct.VerificationToken); err != nil {
			return nil, err
		}
		e.metricInc(MetricActionTokenIssued)
	}

	e.emitAudit(ctx, auditOpLogin, true, acct.ID, maskEmail(acct.Email), nil,
		map[string]string{"verification_required": "true"})

	return &LoginResult{
		Account:              acct,
		VerificationRequired: true,
		SessionToken:         sessionTok,
	}, nil
}

// issueSession mints the access/refresh pair for a verified account and
// persists the new refresh credential.
func (e *Engine) issueSession(ctx context.Context, acct *Account, now time.Time, op string) (*LoginResult, error) {
	access, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeAccess,
	}, e.config.Tokens.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeRefresh,
	}, e.config.Tokens.RefreshTTL)
	if err != nil {
		return nil, err
	}

	acct.RefreshToken = refresh
	acct.LastLogin = now
	acct.LastSeen = now
	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	switch op {
	case auditOpFederatedLogin:
		e.metricInc(MetricFederatedLogin)
	default:
		e.metricInc(MetricLoginSuccess)
	}
	e.emitAudit(ctx, op, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return &LoginResult{
		Account:      acct,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// actionTokenValid reports whether a stored action token still verifies for
// the given purpose.
func (e *Engine) actionTokenValid(tok string, want token.Purpose) bool {
	if tok == "" {
		return false
	}
	_, err := e.codec.Verify(tok, want)
	return err == nil
}

// minutesLeft rounds the remaining lockout up to whole minutes, at least
// one so the caller never shows "0 minutes".
func minutesLeft(until, now time.Time) int {
	left := until.Sub(now)
	if left <= 0 {
		return 1
	}
	mins := int((left + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return mins
}
