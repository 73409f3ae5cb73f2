package authcore

import (
	"context"
	"errors"

	"github.com/kossiva/authcore/token"
)

// SignupResult is the outcome of CreateAccount. SessionToken lets the new
// account poll its verification status before the email is confirmed.
type SignupResult struct {
	Account      *Account
	SessionToken string
}

// CreateAccount registers a new pending account and sends the verification
// email. The password is hashed before anything is persisted; duplicate
// emails fail with ErrAccountExists.
//
// A failed email delivery does not roll the account back: the verification
// token stays on the record and RequestActionToken can resend it.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*SignupResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if err := validateCreateAccount(req, e.config.Password.MinLength); err != nil {
		e.emitAudit(ctx, auditOpSignup, false, "", maskEmail(req.Email), err, nil)
		return nil, err
	}

	email := normalizeEmail(req.Email)
	now := e.now()

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:        e.newID(),
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  hash,
		Status:    StatusPending,
		Role:      e.config.Signup.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}

	verifyTok, err := e.codec.Issue(token.Payload{
		AccountID: acct.ID,
		Email:     acct.Email,
		Role:      string(acct.Role),
		Purpose:   token.PurposeVerifyEmail,
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
	acct.VerificationToken = verifyTok
	acct.SessionToken = sessionTok

	if err := e.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditOpSignup, false, "", maskEmail(email), ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, mapStoreErr(err)
	}

	_ = e.cooldowns.Start(ctx, actionScope(ActionVerifyEmail), acct.ID, e.config.Cooldown.Window)

	mailErr := e.sendActionMail(ctx, acct, ActionVerifyEmail, verifyTok)

	e.notifyAdmin(ctx, acct)

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditOpSignup, mailErr == nil, acct.ID, maskEmail(acct.Email), mailErr, nil)

	return &SignupResult{
		Account:      acct,
		SessionToken: sessionTok,
	}, nil
}
