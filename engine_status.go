package authcore

import (
	"context"
	"strings"
	"time"

	"github.com/kossiva/authcore/token"
)

// SessionStatus reports which pending process (verification or password
// reset) the presented credential belongs to.
//
// Three lookup modes are honored, in order:
//
//  1. A session token authenticates the caller directly. When param also
//     carries an account id it must match the token's subject.
//  2. No session token but param is a raw action token, straight from an
//     email link. The account is resolved from it and a fresh session token
//     is issued and returned in SessionState.SessionToken.
//  3. A bare account id without a session token fails closed with
//     ErrUnauthorized; ids alone never reveal account state.
//
// A verified account with no reset in flight reports ErrAlreadyVerified so
// the caller can stop polling; an account with neither token active reports
// ErrNoActiveProcess.
func (e *Engine) SessionStatus(ctx context.Context, param, sessionToken string) (*SessionState, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	var (
		acct       *Account
		freshToken string
	)

	switch {
	case sessionToken != "":
		a, err := e.sessionAccount(ctx, sessionToken)
		if err != nil {
			if err == ErrSessionExpired {
				e.metricInc(MetricSessionStatusExpired)
			}
			e.emitAudit(ctx, auditOpSessionStatus, false, "", "", err, nil)
			return nil, err
		}
		if param != "" && param != a.ID && !looksLikeToken(param) {
			e.emitAudit(ctx, auditOpSessionStatus, false, a.ID, maskEmail(a.Email), ErrUnauthorized, nil)
			return nil, ErrUnauthorized
		}
		acct = a

	case looksLikeToken(param):
		a, err := e.actionTokenAccount(ctx, param)
		if err != nil {
			e.emitAudit(ctx, auditOpSessionStatus, false, "", "", err, nil)
			return nil, err
		}

		tok, err := e.codec.Issue(token.Payload{
			AccountID: a.ID,
			Email:     a.Email,
			Role:      string(a.Role),
			Purpose:   token.PurposeSession,
		}, e.config.Tokens.SessionTTL)
		if err != nil {
			return nil, err
		}
		a.SessionToken = tok
		if err := e.accounts.Update(ctx, a); err != nil {
			return nil, mapStoreErr(err)
		}
		acct = a
		freshToken = tok
		sessionToken = tok

	default:
		e.emitAudit(ctx, auditOpSessionStatus, false, "", "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	state, err := e.sessionState(acct, sessionToken)
	if err != nil {
		e.emitAudit(ctx, auditOpSessionStatus, false, acct.ID, maskEmail(acct.Email), err, nil)
		return nil, err
	}
	state.SessionToken = freshToken

	e.metricInc(MetricSessionStatusHit)
	e.emitAudit(ctx, auditOpSessionStatus, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return state, nil
}

// actionTokenAccount resolves a raw emailed token, trying the verification
// purpose first and the reset purpose second. The stored copy must match.
func (e *Engine) actionTokenAccount(ctx context.Context, raw string) (*Account, error) {
	claims, err := e.codec.Verify(raw, token.PurposeVerifyEmail)
	if err != nil {
		var resetErr error
		claims, resetErr = e.codec.Verify(raw, token.PurposeReset)
		if resetErr != nil {
			return nil, mapTokenErr(err)
		}
	}

	acct, getErr := e.accounts.GetByID(ctx, claims.Subject)
	if getErr != nil {
		return nil, ErrUnauthorized
	}

	if acct.VerificationToken != raw && acct.PasswordResetToken != raw {
		return nil, ErrUnauthorized
	}

	return acct, nil
}

// sessionState classifies the account's pending process and computes the
// remaining resend cooldown from the session token's age.
func (e *Engine) sessionState(acct *Account, sessionToken string) (*SessionState, error) {
	verifying := !acct.Verified && e.actionTokenValid(acct.VerificationToken, token.PurposeVerifyEmail)
	resetting := acct.Verified && e.actionTokenValid(acct.PasswordResetToken, token.PurposeReset)

	if acct.Verified && !resetting {
		return nil, ErrAlreadyVerified
	}
	if !verifying && !resetting {
		return nil, ErrNoActiveProcess
	}

	active, purpose := acct.VerificationToken, token.PurposeVerifyEmail
	if resetting {
		active, purpose = acct.PasswordResetToken, token.PurposeReset
	}
	// actionTokenValid just verified the active token, so exp is readable.
	expires, _ := e.codec.ExpiresAt(active, purpose)

	return &SessionState{
		AccountID:       acct.ID,
		Email:           acct.Email,
		MaskedEmail:     maskEmail(acct.Email),
		PendingReset:    resetting,
		CooldownSeconds: e.cooldownLeft(sessionToken),
		ExpiresAt:       expires,
	}, nil
}

// cooldownLeft measures how much of the resend window remains, counted from
// when the session token was minted alongside the last emailed token.
func (e *Engine) cooldownLeft(sessionToken string) int {
	issued, err := e.codec.IssuedAt(sessionToken, token.PurposeSession)
	if err != nil {
		return 0
	}
	left := e.config.Cooldown.Window - e.now().Sub(issued)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// looksLikeToken distinguishes a compact JWT from a bare account id.
func looksLikeToken(s string) bool {
	return strings.Count(s, ".") == 2
}
