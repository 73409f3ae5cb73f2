package authcore

import (
	"context"
	"errors"

	"github.com/kossiva/authcore/token"
)

// RefreshResult carries the rotated credential pair.
type RefreshResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
}

// Refresh exchanges a refresh token for a new access token and a rotated
// refresh token. Only the stored instance is honored: a token that was
// already rotated away fails with ErrForbidden even while its signature is
// still valid.
//
// The replacement refresh token gets the shorter rotated lifetime, so a
// session kept alive purely by refreshing decays faster than one renewed by
// logging in.
func (e *Engine) Refresh(ctx context.Context, presented string) (*RefreshResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if presented == "" {
		return nil, ErrUnauthorized
	}

	acct, err := e.accounts.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricRefreshForbidden)
			e.emitAudit(ctx, auditOpRefresh, false, "", "", ErrForbidden, nil)
			return nil, ErrForbidden
		}
		return nil, mapStoreErr(err)
	}

	claims, err := e.codec.Verify(presented, token.PurposeRefresh)
	if err != nil || claims.Subject != acct.ID {
		e.metricInc(MetricRefreshForbidden)
		e.emitAudit(ctx, auditOpRefresh, false, acct.ID, maskEmail(acct.Email), ErrForbidden, nil)
		return nil, ErrForbidden
	}

	access, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeAccess,
	}, e.config.Tokens.AccessTTL)
	if err != nil {
		return nil, err
	}

	rotated, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeRefresh,
	}, e.config.Tokens.RotatedRefreshTTL)
	if err != nil {
		return nil, err
	}

	acct.RefreshToken = rotated
	acct.LastSeen = e.now()
	if err := e.accounts.Update(ctx, acct); err != nil {
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditOpRefresh, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return &RefreshResult{
		Account:      acct,
		AccessToken:  access,
		RefreshToken: rotated,
	}, nil
}

// Logout revokes the refresh credential behind presented. Unknown or empty
// tokens succeed quietly so repeated logouts and stale cookies are
// harmless.
func (e *Engine) Logout(ctx context.Context, presented string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if presented == "" {
		return nil
	}

	acct, err := e.accounts.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return mapStoreErr(err)
	}

	acct.RefreshToken = ""
	if err := e.accounts.Update(ctx, acct); err != nil {
		return mapStoreErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditOpLogout, true, acct.ID, maskEmail(acct.Email), nil, nil)

	return nil
}
