package internaldefs

import (
	authcore "github.com/kossiva/authcore"
)

// CounterDef pairs a MetricID with its export name and help text.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful logins."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginLocked, Name: "authcore_login_locked_total", Help: "Logins rejected by an active lockout."},
	{ID: authcore.MetricSignupSuccess, Name: "authcore_signup_success_total", Help: "Accounts created."},
	{ID: authcore.MetricSignupDuplicate, Name: "authcore_signup_duplicate_total", Help: "Signups rejected for an existing email."},
	{ID: authcore.MetricActionTokenIssued, Name: "authcore_action_token_issued_total", Help: "Verification and reset tokens issued."},
	{ID: authcore.MetricActionTokenCooldown, Name: "authcore_action_token_cooldown_total", Help: "Token requests rejected by the resend cooldown."},
	{ID: authcore.MetricVerifySuccess, Name: "authcore_verify_success_total", Help: "Email verifications completed."},
	{ID: authcore.MetricVerifyFailure, Name: "authcore_verify_failure_total", Help: "Email verifications rejected."},
	{ID: authcore.MetricResetSuccess, Name: "authcore_reset_success_total", Help: "Password resets completed."},
	{ID: authcore.MetricResetFailure, Name: "authcore_reset_failure_total", Help: "Password resets rejected."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authcore.MetricRefreshForbidden, Name: "authcore_refresh_forbidden_total", Help: "Refresh attempts with an unrecognized token."},
	{ID: authcore.MetricSessionStatusHit, Name: "authcore_session_status_hit_total", Help: "Session status queries answered."},
	{ID: authcore.MetricSessionStatusExpired, Name: "authcore_session_status_expired_total", Help: "Session status queries on an expired session."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logouts."},
	{ID: authcore.MetricFederatedLogin, Name: "authcore_federated_login_total", Help: "Federated logins."},
	{ID: authcore.MetricDeliveryFailure, Name: "authcore_delivery_failure_total", Help: "Notification deliveries reported failed."},
}
