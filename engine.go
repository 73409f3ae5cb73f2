package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kossiva/authcore/internal/audit"
	"github.com/kossiva/authcore/mail"
	"github.com/kossiva/authcore/password"
	"github.com/kossiva/authcore/token"
)

// Engine runs the account lifecycle: signup, login with lockout, email
// verification, password reset, session status, and refresh rotation. Build
// one with [New] and treat it as immutable afterwards.
type Engine struct {
	config    Config
	accounts  AccountStore
	cooldowns CooldownStore
	codec     *token.Codec
	hasher    *password.Hasher
	mailer    mail.Dispatcher
	audit     *audit.Dispatcher
	metrics   *Metrics

	now   func() time.Time
	newID func() string
}

// Close drains and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters for exporters.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	if e == nil || e.metrics == nil {
		return map[MetricID]uint64{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// mapStoreErr keeps not-found and conflict sentinels intact and folds every
// other backend failure into ErrServerError.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrAccountExists) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrServerError, err)
}

// actionScope maps an action kind to its cooldown scope.
func actionScope(kind ActionKind) string {
	if kind == ActionPasswordReset {
		return "reset"
	}
	return "verify"
}

func (e *Engine) actionLink(kind ActionKind, tok string) string {
	base := e.config.Mail.VerifyLinkBase
	if kind == ActionPasswordReset {
		base = e.config.Mail.ResetLinkBase
	}
	if base == "" {
		return tok
	}
	return base + "/" + tok
}

// sendActionMail dispatches the email carrying an action link.
func (e *Engine) sendActionMail(ctx context.Context, a *Account, kind ActionKind, tok string) error {
	msg := mail.Message{
		To:   a.Email,
		Name: a.FirstName + " " + a.LastName,
		Link: e.actionLink(kind, tok),
	}
	switch kind {
	case ActionPasswordReset:
		msg.Kind = mail.KindPasswordReset
		msg.Subject = "Reset your password"
	default:
		msg.Kind = mail.KindVerification
		msg.Subject = "Verify your account"
	}

	if err := e.mailer.Send(ctx, msg); err != nil {
		e.metricInc(MetricDeliveryFailure)
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	return nil
}

// notifyAdmin sends a best-effort signup notice to any admin account.
// Failures are swallowed; the signup already succeeded.
func (e *Engine) notifyAdmin(ctx context.Context, created *Account) {
	if !e.config.Signup.NotifyAdmin {
		return
	}

	admin, err := e.accounts.FindAdmin(ctx)
	if err != nil {
		return
	}

	_ = e.mailer.Send(ctx, mail.Message{
		Kind:    mail.KindAdminSignup,
		To:      admin.Email,
		Name:    admin.FirstName,
		Subject: "New account: " + maskEmail(created.Email),
	})
}
