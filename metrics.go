package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginLocked
	MetricSignupSuccess
	MetricSignupDuplicate
	MetricActionTokenIssued
	MetricActionTokenCooldown
	MetricVerifySuccess
	MetricVerifyFailure
	MetricResetSuccess
	MetricResetFailure
	MetricRefreshSuccess
	MetricRefreshForbidden
	MetricSessionStatusHit
	MetricSessionStatusExpired
	MetricLogout
	MetricFederatedLogin
	MetricDeliveryFailure
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricLoginLocked:          "login_locked",
	MetricSignupSuccess:        "signup_success",
	MetricSignupDuplicate:      "signup_duplicate",
	MetricActionTokenIssued:    "action_token_issued",
	MetricActionTokenCooldown:  "action_token_cooldown",
	MetricVerifySuccess:        "verify_success",
	MetricVerifyFailure:        "verify_failure",
	MetricResetSuccess:         "reset_success",
	MetricResetFailure:         "reset_failure",
	MetricRefreshSuccess:       "refresh_success",
	MetricRefreshForbidden:     "refresh_forbidden",
	MetricSessionStatusHit:     "session_status_hit",
	MetricSessionStatusExpired: "session_status_expired",
	MetricLogout:               "logout",
	MetricFederatedLogin:       "federated_login",
	MetricDeliveryFailure:      "delivery_failure",
}

// Name returns the stable export name for the counter.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of atomic counters. A nil or disabled Metrics
// accepts increments and reports zeros.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics returns counters honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether increments are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, int(metricIDCount))
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return out
}
