package authcore

import (
	"bytes"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Tokens.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfigIsValidWithSecret(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.Tokens.Secret = []byte("short") }},
		{"zero action ttl", func(c *Config) { c.Tokens.ActionTTL = 0 }},
		{"session shorter than action", func(c *Config) { c.Tokens.SessionTTL = c.Tokens.ActionTTL - time.Minute }},
		{"zero access ttl", func(c *Config) { c.Tokens.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.Tokens.RefreshTTL = 0 }},
		{"rotated longer than refresh", func(c *Config) { c.Tokens.RotatedRefreshTTL = c.Tokens.RefreshTTL + time.Hour }},
		{"negative leeway", func(c *Config) { c.Tokens.Leeway = -time.Second }},
		{"zero max attempts", func(c *Config) { c.Lockout.MaxAttempts = 0 }},
		{"zero lock duration", func(c *Config) { c.Lockout.LockDuration = 0 }},
		{"negative unlock buffer", func(c *Config) { c.Lockout.UnlockBuffer = -time.Second }},
		{"weak argon memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero argon time", func(c *Config) { c.Password.Time = 0 }},
		{"short salt", func(c *Config) { c.Password.SaltLength = 8 }},
		{"short key", func(c *Config) { c.Password.KeyLength = 8 }},
		{"zero min password", func(c *Config) { c.Password.MinLength = 0 }},
		{"zero cooldown window", func(c *Config) { c.Cooldown.Window = 0 }},
		{"bad default role", func(c *Config) { c.Signup.DefaultRole = Role("root") }},
		{"audit enabled without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
		})
	}
}

func TestCloneConfigCopiesSecret(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	clone.Tokens.Secret[0] ^= 0xFF
	if bytes.Equal(cfg.Tokens.Secret[:1], clone.Tokens.Secret[:1]) {
		t.Fatal("clone shares the secret backing array")
	}
}

func TestBuilderRequiresStores(t *testing.T) {
	cfg := validTestConfig()

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("Build must fail without an account store")
	}
	if _, err := New().WithConfig(cfg).WithAccountStore(newMemStore()).Build(); err == nil {
		t.Fatal("Build must fail without a cooldown store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	clock := newTestClock()
	b := New().
		WithConfig(validTestConfig()).
		WithAccountStore(newMemStore()).
		WithCooldownStore(newMemCooldowns(clock.Now))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("a builder must not be reusable")
	}
}
