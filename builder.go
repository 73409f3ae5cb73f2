package authcore

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kossiva/authcore/internal/audit"
	"github.com/kossiva/authcore/mail"
	"github.com/kossiva/authcore/password"
	"github.com/kossiva/authcore/token"
)

// Builder assembles an Engine. Collaborators are supplied with With*
// methods; Build validates the configuration and wires everything together.
type Builder struct {
	config Config

	accounts  AccountStore
	cooldowns CooldownStore
	mailer    mail.Dispatcher
	auditSink AuditSink

	clock func() time.Time
	newID func() string

	built bool
}

// New returns a Builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret without replacing the rest of
// the configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Tokens.Secret = cloneBytes(secret)
	return b
}

// WithAccountStore sets the persistence backend. Required.
func (b *Builder) WithAccountStore(s AccountStore) *Builder {
	b.accounts = s
	return b
}

// WithCooldownStore sets the resend throttle backend. Required.
func (b *Builder) WithCooldownStore(s CooldownStore) *Builder {
	b.cooldowns = s
	return b
}

// WithMailer sets the notification dispatcher. Defaults to a no-op.
func (b *Builder) WithMailer(d mail.Dispatcher) *Builder {
	b.mailer = d
	return b
}

// WithAuditSink enables audit and routes events to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.config.Audit.Enabled = true
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithClock overrides the time source, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithIDGenerator overrides account id generation, for tests.
func (b *Builder) WithIDGenerator(gen func() string) *Builder {
	b.newID = gen
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.cooldowns == nil {
		return nil, errors.New("cooldown store required")
	}

	mailer := b.mailer
	if mailer == nil {
		mailer = mail.NoOp{}
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	newID := b.newID
	if newID == nil {
		newID = uuid.NewString
	}

	codec, err := token.NewCodec(token.Config{
		Secret: cloneBytes(cfg.Tokens.Secret),
		Issuer: cfg.Tokens.Issuer,
		Leeway: cfg.Tokens.Leeway,
		Now:    clock,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		accounts:  b.accounts,
		cooldowns: b.cooldowns,
		codec:     codec,
		hasher:    hasher,
		mailer:    mailer,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     clock,
		newID:   newID,
	}

	b.built = true

	return engine, nil
}
