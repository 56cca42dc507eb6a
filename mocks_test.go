package authswitch_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-auth-switch"
	"github.com/stretchr/testify/mock"
)

// MockAccounts implements authswitch.Accounts
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) FindAccount(ctx context.Context, id string) (*authswitch.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*authswitch.Account)
	return acc, args.Error(1)
}

// MockIdentitySource implements authswitch.IdentitySource
type MockIdentitySource struct {
	mock.Mock
}

func (m *MockIdentitySource) CurrentIdentity(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}

// MockMetrics implements authswitch.MetricsReporter
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordSwitchAttempt(service string) {
	m.Called(service)
}

func (m *MockMetrics) RecordSwitchDecision(service string, allowed bool) {
	m.Called(service, allowed)
}

func (m *MockMetrics) RecordSwitchOutcome(service string, success bool) {
	m.Called(service, success)
}

// fakePipeline records hooks so tests can drive them by hand.
type fakePipeline struct {
	mu       sync.Mutex
	validate map[int]authswitch.ValidateHook
	login    map[int]authswitch.OutcomeHook
	failure  map[int]authswitch.OutcomeHook
	nextID   int
	stops    int
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		validate: map[int]authswitch.ValidateHook{},
		login:    map[int]authswitch.OutcomeHook{},
		failure:  map[int]authswitch.OutcomeHook{},
	}
}

func (p *fakePipeline) stopper(remove func()) authswitch.Stopper {
	return authswitch.StopperFunc(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.stops++
		remove()
	})
}

func (p *fakePipeline) ValidateLoginAttempt(hook authswitch.ValidateHook) authswitch.Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.validate[id] = hook
	return p.stopper(func() { delete(p.validate, id) })
}

func (p *fakePipeline) OnLogin(hook authswitch.OutcomeHook) authswitch.Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.login[id] = hook
	return p.stopper(func() { delete(p.login, id) })
}

func (p *fakePipeline) OnLoginFailure(hook authswitch.OutcomeHook) authswitch.Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.failure[id] = hook
	return p.stopper(func() { delete(p.failure, id) })
}

func (p *fakePipeline) counts() (validate, login, failure, stops int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.validate), len(p.login), len(p.failure), p.stops
}

func (p *fakePipeline) validateHooks() []authswitch.ValidateHook {
	p.mu.Lock()
	defer p.mu.Unlock()
	return orderedHooks(p.validate, p.nextID)
}

func (p *fakePipeline) loginHooks() []authswitch.OutcomeHook {
	p.mu.Lock()
	defer p.mu.Unlock()
	return orderedHooks(p.login, p.nextID)
}

func (p *fakePipeline) failureHooks() []authswitch.OutcomeHook {
	p.mu.Lock()
	defer p.mu.Unlock()
	return orderedHooks(p.failure, p.nextID)
}

func orderedHooks[T any](hooks map[int]T, last int) []T {
	out := make([]T, 0, len(hooks))
	for id := 1; id <= last; id++ {
		if h, ok := hooks[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.level == level {
			n++
		}
	}
	return n
}
