package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kossiva/authcore/mail"
)

// memStore is an in-memory AccountStore with copy semantics: callers get
// snapshots, so only Update/Create mutate the stored state. It mirrors how
// the Redis store behaves without dragging I/O into every engine test.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]*Account)}
}

func (s *memStore) GetByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *memStore) GetByRefreshToken(_ context.Context, token string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return nil, ErrAccountNotFound
	}
	for _, a := range s.accounts {
		if a.RefreshToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *memStore) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrAccountExists
		}
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *memStore) Update(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrAccountNotFound
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memStore) FindAdmin(_ context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Role == RoleAdmin {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

// snapshot returns the stored state of one account for assertions.
func (s *memStore) snapshot(t *testing.T, id string) *Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	cp := *a
	return &cp
}

// memCooldowns tracks cooldown deadlines against the test clock instead of
// wall time.
type memCooldowns struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[string]time.Time
}

func newMemCooldowns(now func() time.Time) *memCooldowns {
	return &memCooldowns{now: now, until: make(map[string]time.Time)}
}

func (c *memCooldowns) Start(_ context.Context, scope, accountID string, window time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.until[scope+":"+accountID] = c.now().Add(window)
	return nil
}

func (c *memCooldowns) Remaining(_ context.Context, scope, accountID string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline, ok := c.until[scope+":"+accountID]
	if !ok {
		return 0, nil
	}
	left := deadline.Sub(c.now())
	if left < 0 {
		return 0, nil
	}
	return left, nil
}

func (c *memCooldowns) Clear(_ context.Context, scope, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.until, scope+":"+accountID)
	return nil
}

// testClock is a movable time source shared by the engine and the cooldown
// store.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	engine *Engine
	store  *memStore
	clock  *testClock
	mail   *mail.Channel
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	clock := newTestClock()
	accountStore := newMemStore()
	mailer := mail.NewChannel(16)

	cfg := defaultConfig()
	cfg.Tokens.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Cheap argon2 parameters keep the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	for _, opt := range opts {
		opt(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(accountStore).
		WithCooldownStore(newMemCooldowns(clock.Now)).
		WithMailer(mailer).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{
		engine: engine,
		store:  accountStore,
		clock:  clock,
		mail:   mailer,
	}
}

// signup creates an account through the engine and drains the verification
// mail, returning the result.
func (env *testEnv) signup(t *testing.T, email string) *SignupResult {
	t.Helper()

	result, err := env.engine.CreateAccount(context.Background(), CreateAccountRequest{
		FirstName:       "Test",
		LastName:        "Account",
		Email:           email,
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	env.drainMail(t)
	return result
}

// verified signs up and confirms the account so login tests start from an
// active record.
func (env *testEnv) verified(t *testing.T, email string) *Account {
	t.Helper()

	result := env.signup(t, email)
	acct, err := env.engine.ConfirmVerification(context.Background(),
		env.store.snapshot(t, result.Account.ID).VerificationToken)
	if err != nil {
		t.Fatalf("ConfirmVerification: %v", err)
	}
	return acct
}

func (env *testEnv) drainMail(t *testing.T) []mail.Message {
	t.Helper()
	var out []mail.Message
	for {
		select {
		case msg := <-env.mail.C:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// lastMail returns the most recent message, failing when none arrived.
func (env *testEnv) lastMail(t *testing.T) mail.Message {
	t.Helper()
	msgs := env.drainMail(t)
	if len(msgs) == 0 {
		t.Fatal("expected a mail message")
	}
	return msgs[len(msgs)-1]
}
