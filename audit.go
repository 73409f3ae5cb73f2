package authcore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kossiva/authcore/internal/audit"
)

// AuditEvent is re-exported so callers can consume events without importing
// the internal package.
type AuditEvent = audit.Event

// AuditSink receives engine audit events.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink backed by a buffered channel.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

const (
	auditOpLogin           = "login"
	auditOpSignup          = "signup"
	auditOpActionToken     = "action_token_request"
	auditOpVerifyEmail     = "verify_email"
	auditOpPasswordReset   = "password_reset"
	auditOpSessionStatus   = "session_status"
	auditOpRefresh         = "refresh"
	auditOpLogout          = "logout"
	auditOpFederatedLogin  = "federated_login"
	auditOpPasswordChange  = "password_change"
	auditOpProfileUpdate   = "profile_update"
	auditOpAccountDelete   = "account_delete"
)

const (
	auditErrCredentials = "invalid_credentials"
	auditErrLocked      = "account_locked"
	auditErrCooldown    = "cooldown"
	auditErrToken       = "invalid_token"
	auditErrExpired     = "token_expired"
	auditErrNotFound    = "not_found"
	auditErrDuplicate   = "duplicate"
	auditErrForbidden   = "forbidden"
	auditErrDelivery    = "delivery_failure"
	auditErrValidation  = "validation"
	auditErrInternal    = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	op string,
	success bool,
	accountID string,
	maskedEmail string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		Op:        op,
		AccountID: accountID,
		Email:     maskedEmail,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = code
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTooManyAttempts):
		return auditErrCredentials
	case errors.Is(err, ErrAccountLocked):
		return auditErrLocked
	case errors.Is(err, ErrCooldown):
		return auditErrCooldown
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrSessionExpired):
		return auditErrExpired
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrInvalidLink), errors.Is(err, ErrUnauthorized):
		return auditErrToken
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrNoActiveProcess):
		return auditErrNotFound
	case errors.Is(err, ErrAccountExists), errors.Is(err, ErrAlreadyVerified):
		return auditErrDuplicate
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrDeliveryFailure):
		return auditErrDelivery
	case isValidationError(err):
		return auditErrValidation
	default:
		return auditErrInternal
	}
}

func isValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
