package authswitch

import (
	"context"
	"sync"
)

// ValidateSwitchFunc decides whether attemptingUser may switch to the
// credential used by attempt. Returning an error denies the attempt with
// that error as the reason.
type ValidateSwitchFunc func(ctx context.Context, attemptingUser *Account, attempt *Attempt) (bool, error)

// SwitchOutcomeFunc observes a switch once its outcome is known.
type SwitchOutcomeFunc func(ctx context.Context, attemptingUser *Account, attempt *Attempt) error

// Callbacks is the set of optional functions an application registers to
// observe credential switches. Nil fields are not wired.
type Callbacks struct {
	ValidateSwitch  ValidateSwitchFunc
	OnSwitch        SwitchOutcomeFunc
	OnSwitchFailure SwitchOutcomeFunc

	// OnNoAttemptingUser gates attempts not yet attributed to an attempting
	// user, before the switch checks run. Returning false denies the
	// attempt. It is only consulted when one of the other callbacks is set.
	OnNoAttemptingUser func(ctx context.Context, attempt *Attempt) bool
}

func (c Callbacks) empty() bool {
	return c.ValidateSwitch == nil && c.OnSwitch == nil && c.OnSwitchFailure == nil
}

// Manager wires Callbacks into a Pipeline and keeps track of every
// Registration it hands out.
type Manager struct {
	pipeline     Pipeline
	identities   IdentitySource
	accounts     Accounts
	logger       Logger
	activitySink ActivitySink
	metrics      MetricsReporter

	mu            sync.Mutex
	registrations []*Registration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager and its hooks.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for switch outcome events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithMetrics configures the reporter for switch counters.
func WithMetrics(reporter MetricsReporter) ManagerOption {
	return func(m *Manager) {
		m.metrics = normalizeMetrics(reporter)
	}
}

// NewManager returns a Manager that registers hooks on pipeline. The
// identities source tells who is logged in before an attempt, accounts
// resolves that identity to a full record.
func NewManager(pipeline Pipeline, identities IdentitySource, accounts Accounts, opts ...ManagerOption) *Manager {
	m := &Manager{
		pipeline:     pipeline,
		identities:   identities,
		accounts:     accounts,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		metrics:      noopMetrics{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Register wires cbs into the pipeline and returns a handle that detaches
// them. Registering an empty Callbacks is allowed and yields an inert
// handle.
func (m *Manager) Register(cbs Callbacks) *Registration {
	reg := &Registration{}

	if !cbs.empty() {
		reg.stoppers = append(reg.stoppers, m.pipeline.ValidateLoginAttempt(newSwitchValidator(m, cbs)))
	}
	if cbs.OnSwitch != nil {
		reg.stoppers = append(reg.stoppers, m.pipeline.OnLogin(newSuccessHook(m, cbs.OnSwitch)))
	}
	if cbs.OnSwitchFailure != nil {
		reg.stoppers = append(reg.stoppers, m.pipeline.OnLoginFailure(newFailureHook(m, cbs.OnSwitchFailure)))
	}

	m.mu.Lock()
	m.registrations = append(m.registrations, reg)
	m.mu.Unlock()

	m.logger.Debug("registered switch callbacks", "hooks", len(reg.stoppers))

	return reg
}

// StopAll stops every registration handed out so far and forgets them.
// It is meant for tearing down tests, not for normal operation.
func (m *Manager) StopAll() {
	m.mu.Lock()
	regs := m.registrations
	m.registrations = nil
	m.mu.Unlock()

	for _, reg := range regs {
		reg.Stop()
	}
}

// Registrations returns how many registrations are tracked. Stopped
// registrations stay tracked until StopAll.
func (m *Manager) Registrations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.registrations)
}

// Registration owns the pipeline hooks wired for one Callbacks value.
type Registration struct {
	once     sync.Once
	stoppers []Stopper
}

// Stop detaches the hooks of this registration. Further calls are no-ops.
func (r *Registration) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		for _, s := range r.stoppers {
			if s != nil {
				s.Stop()
			}
		}
		r.stoppers = nil
	})
}
