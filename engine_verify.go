package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/kossiva/authcore/token"
)

// ConfirmVerification redeems an emailed verification token. Redeeming a
// link for an already verified account succeeds without touching the
// record, so a double-clicked email is not an error.
func (e *Engine) ConfirmVerification(ctx context.Context, tok string) (*Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(tok, token.PurposeVerifyEmail)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		mapped := mapTokenErr(err)
		e.emitAudit(ctx, auditOpVerifyEmail, false, "", "", mapped, nil)
		return nil, mapped
	}

	acct, err := e.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditOpVerifyEmail, false, claims.Subject, "", ErrInvalidLink, nil)
			return nil, ErrInvalidLink
		}
		return nil, mapStoreErr(err)
	}

	if acct.Verified {
		e.emitAudit(ctx, auditOpVerifyEmail, true, acct.ID, maskEmail(acct.Email), nil,
			map[string]string{"idempotent": "true"})
		return acct, nil
	}

	acct.Verified = true
	acct.Status = StatusActive
	acct.VerificationToken = ""
	acct.SessionToken = ""

	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	_ = e.cooldowns.Clear(ctx, actionScope(ActionVerifyEmail), acct.ID)

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditOpVerifyEmail, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return acct, nil
}

// ConfirmPasswordReset redeems an emailed reset token and installs the new
// password. The stored token copy must match the presented one, so a reset
// link is single-use even inside its lifetime.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, tok, newPassword, confirm string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(tok, token.PurposeReset)
	if err != nil {
		e.metricInc(MetricResetFailure)
		mapped := mapTokenErr(err)
		e.emitAudit(ctx, auditOpPasswordReset, false, "", "", mapped, nil)
		return mapped
	}

	acct, err := e.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditOpPasswordReset, false, claims.Subject, "", ErrInvalidLink, nil)
			return ErrInvalidLink
		}
		return mapStoreErr(err)
	}

	if acct.PasswordResetToken != tok {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditOpPasswordReset, false, acct.ID, maskEmail(acct.Email), ErrInvalidLink, nil)
		return ErrInvalidLink
	}

	if err := validateNewPassword(newPassword, confirm, e.config.Password.MinLength); err != nil {
		e.emitAudit(ctx, auditOpPasswordReset, false, acct.ID, maskEmail(acct.Email), err, nil)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	acct.Password = hash
	acct.PasswordResetToken = ""
	acct.SessionToken = ""
	// A successful reset also unwinds any pending lockout and revokes the
	// current refresh credential.
	acct.LoginAttempts = 0
	acct.LockUntil = time.Time{}
	acct.RefreshToken = ""

	if err := e.accounts.Update(ctx, acct); err != nil {
		return mapStoreErr(err)
	}

	_ = e.cooldowns.Clear(ctx, actionScope(ActionPasswordReset), acct.ID)

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditOpPasswordReset, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return nil
}

// mapTokenErr converts codec failures to the link-facing sentinels.
func mapTokenErr(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return ErrTokenExpired
	}
	return ErrTokenMalformed
}
