package authcore

import (
	"context"
	"errors"
	"math"

	"github.com/kossiva/authcore/token"
)

// ActionTokenResult reports what RequestActionToken put in motion.
type ActionTokenResult struct {
	Kind         ActionKind
	MaskedEmail  string
	SessionToken string
}

// RequestActionToken starts (or restarts) the pending process for the
// account behind email. Unverified accounts get a verification token,
// verified accounts a password-reset token; the other pair is cleared so a
// single process is active at a time. Resends inside the cooldown window
// fail with CooldownError.
//
// The emailed token is written to the account before dispatch, so a
// delivery failure leaves a resendable state behind.
func (e *Engine) RequestActionToken(ctx context.Context, email string) (*ActionTokenResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	acct, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, auditOpActionToken, false, "", maskEmail(email), ErrAccountNotFound, nil)
			return nil, ErrAccountNotFound
		}
		return nil, mapStoreErr(err)
	}

	return e.issueActionToken(ctx, acct)
}

// ResendActionToken is the status-page variant of RequestActionToken: the
// caller proves ownership with the session token issued alongside the
// original email instead of retyping the address. A non-empty kind pins
// which process the caller expects; when it contradicts the account's
// actual state the resend fails with a field error on "type" instead of
// silently mailing the other link.
func (e *Engine) ResendActionToken(ctx context.Context, sessionToken string, kind ActionKind) (*ActionTokenResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	acct, err := e.sessionAccount(ctx, sessionToken)
	if err != nil {
		e.emitAudit(ctx, auditOpActionToken, false, "", "", err, nil)
		return nil, err
	}

	if kind != "" && kind != pendingKind(acct) {
		vErr := &ValidationError{Fields: map[string]string{
			"type": "does not match the pending process",
		}}
		e.emitAudit(ctx, auditOpActionToken, false, acct.ID, maskEmail(acct.Email), vErr, nil)
		return nil, vErr
	}

	return e.issueActionToken(ctx, acct)
}

// pendingKind derives which process an action token would drive for acct.
func pendingKind(acct *Account) ActionKind {
	if acct.Verified {
		return ActionPasswordReset
	}
	return ActionVerifyEmail
}

func (e *Engine) issueActionToken(ctx context.Context, acct *Account) (*ActionTokenResult, error) {
	kind := pendingKind(acct)

	left, err := e.cooldowns.Remaining(ctx, actionScope(kind), acct.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if left > 0 {
		e.metricInc(MetricActionTokenCooldown)
		cErr := &CooldownError{SecondsLeft: int(math.Ceil(left.Seconds()))}
		e.emitAudit(ctx, auditOpActionToken, false, acct.ID, maskEmail(acct.Email), cErr, nil)
		return nil, cErr
	}

	purpose := token.PurposeVerifyEmail
	if kind == ActionPasswordReset {
		purpose = token.PurposeReset
	}

	actionTok, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   purpose,
	}, e.config.Tokens.ActionTTL)
	if err != nil {
		return nil, err
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

	// One active process at a time.
	if kind == ActionPasswordReset {
		acct.PasswordResetToken = actionTok
		acct.VerificationToken = ""
	} else {
		acct.VerificationToken = actionTok
		acct.PasswordResetToken = ""
	}
	acct.SessionToken = sessionTok

	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	if err := e.cooldowns.Start(ctx, actionScope(kind), acct.ID, e.config.Cooldown.Window); err != nil {
		return nil, mapStoreErr(err)
	}

	if err := e.sendActionMail(ctx, acct, kind, actionTok); err != nil {
		e.emitAudit(ctx, auditOpActionToken, false, acct.ID, maskEmail(acct.Email), err,
			map[string]string{"kind": string(kind)})
		return nil, err
	}

	e.metricInc(MetricActionTokenIssued)
	e.emitAudit(ctx, auditOpActionToken, true, acct.ID, maskEmail(acct.Email), nil,
		map[string]string{"kind": string(kind)})

	return &ActionTokenResult{
		Kind:         kind,
		MaskedEmail:  maskEmail(acct.Email),
		SessionToken: sessionTok,
	}, nil
}

// sessionAccount resolves a session token to its account, distinguishing an
// expired token from a malformed or mismatched one.
func (e *Engine) sessionAccount(ctx context.Context, sessionToken string) (*Account, error) {
	if sessionToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.codec.Verify(sessionToken, token.PurposeSession)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthorized
	}

	acct, err := e.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, mapStoreErr(err)
	}

	// The stored copy is the only honored instance; an older token that
	// still verifies is rejected once a newer one was issued. An empty
	// stored copy means the process completed, which the caller may still
	// learn about through the terminal status.
	if acct.SessionToken != "" && acct.SessionToken != sessionToken {
		return nil, ErrUnauthorized
	}

	return acct, nil
}
