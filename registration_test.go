package authswitch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-auth-switch"
	"github.com/goliatone/go-auth-switch/invocation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func allowAll(context.Context, *authswitch.Account, *authswitch.Attempt) (bool, error) {
	return true, nil
}

func noopOutcome(context.Context, *authswitch.Account, *authswitch.Attempt) error {
	return nil
}

func newUnitManager(opts ...authswitch.ManagerOption) (*authswitch.Manager, *fakePipeline, *MockIdentitySource, *MockAccounts) {
	p := newFakePipeline()
	ids := new(MockIdentitySource)
	accounts := new(MockAccounts)
	opts = append([]authswitch.ManagerOption{authswitch.WithLogger(&captureLogger{})}, opts...)
	return authswitch.NewManager(p, ids, accounts, opts...), p, ids, accounts
}

func switchAttempt(candidateID, service string) *authswitch.Attempt {
	return &authswitch.Attempt{
		Type:       service,
		MethodName: "login",
		Allowed:    true,
		User:       &authswitch.Account{ID: candidateID},
		SessionID:  "session-1",
	}
}

func TestRegisterWiresOnlyWhatIsNeeded(t *testing.T) {
	tests := []struct {
		name                            string
		cbs                             authswitch.Callbacks
		validate, login, failure, total int
	}{
		{name: "empty", cbs: authswitch.Callbacks{}},
		{name: "validate only", cbs: authswitch.Callbacks{ValidateSwitch: allowAll}, validate: 1},
		{name: "on switch only", cbs: authswitch.Callbacks{OnSwitch: noopOutcome}, validate: 1, login: 1},
		{name: "on failure only", cbs: authswitch.Callbacks{OnSwitchFailure: noopOutcome}, validate: 1, failure: 1},
		{
			name:     "all",
			cbs:      authswitch.Callbacks{ValidateSwitch: allowAll, OnSwitch: noopOutcome, OnSwitchFailure: noopOutcome},
			validate: 1, login: 1, failure: 1,
		},
		{
			name: "no attempting user gate alone",
			cbs: authswitch.Callbacks{OnNoAttemptingUser: func(context.Context, *authswitch.Attempt) bool {
				return false
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p, _, _ := newUnitManager()

			reg := m.Register(tt.cbs)
			require.NotNil(t, reg)

			validate, login, failure, _ := p.counts()
			assert.Equal(t, tt.validate, validate)
			assert.Equal(t, tt.login, login)
			assert.Equal(t, tt.failure, failure)
			assert.Equal(t, 1, m.Registrations())

			reg.Stop()
			validate, login, failure, _ = p.counts()
			assert.Zero(t, validate+login+failure)
		})
	}
}

func TestRegistrationStopIsIdempotent(t *testing.T) {
	m, p, _, _ := newUnitManager()

	reg := m.Register(authswitch.Callbacks{
		ValidateSwitch:  allowAll,
		OnSwitch:        noopOutcome,
		OnSwitchFailure: noopOutcome,
	})

	reg.Stop()
	_, _, _, stops := p.counts()
	assert.Equal(t, 3, stops)

	assert.NotPanics(t, reg.Stop)
	_, _, _, stops = p.counts()
	assert.Equal(t, 3, stops, "second Stop must not touch the pipeline")

	var nilReg *authswitch.Registration
	assert.NotPanics(t, nilReg.Stop)
}

func TestStopLeavesOtherRegistrations(t *testing.T) {
	m, p, _, _ := newUnitManager()

	first := m.Register(authswitch.Callbacks{OnSwitch: noopOutcome})
	m.Register(authswitch.Callbacks{OnSwitchFailure: noopOutcome})

	first.Stop()

	validate, login, failure, _ := p.counts()
	assert.Equal(t, 1, validate)
	assert.Equal(t, 0, login)
	assert.Equal(t, 1, failure)
	assert.Equal(t, 2, m.Registrations(), "stopped registrations stay listed")
}

func TestStopAll(t *testing.T) {
	m, p, _, _ := newUnitManager()

	first := m.Register(authswitch.Callbacks{OnSwitch: noopOutcome})
	m.Register(authswitch.Callbacks{ValidateSwitch: allowAll, OnSwitchFailure: noopOutcome})
	m.Register(authswitch.Callbacks{})
	first.Stop()

	m.StopAll()

	validate, login, failure, stops := p.counts()
	assert.Zero(t, validate+login+failure)
	assert.Equal(t, 4, stops)
	assert.Zero(t, m.Registrations())

	assert.NotPanics(t, m.StopAll)
}

func TestValidatorPassesThroughUnknownAttempts(t *testing.T) {
	m, p, ids, accounts := newUnitManager()
	validateCalls := 0
	m.Register(authswitch.Callbacks{
		ValidateSwitch: func(context.Context, *authswitch.Account, *authswitch.Attempt) (bool, error) {
			validateCalls++
			return false, nil
		},
	})
	hook := p.validateHooks()[0]

	attempts := []*authswitch.Attempt{
		{Type: "password", MethodName: "login", Allowed: true},
		{User: &authswitch.Account{ID: "u"}, MethodName: "login", Allowed: true},
		{User: &authswitch.Account{ID: "u"}, Type: "password", Allowed: true},
		{Type: "password", MethodName: "login", Allowed: false},
	}

	for _, attempt := range attempts {
		ctx := invocation.Begin(context.Background())
		ok, err := hook(ctx, attempt)
		require.NoError(t, err)
		assert.Equal(t, attempt.Allowed, ok)
	}

	ok, err := hook(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, validateCalls)
	ids.AssertNotCalled(t, "CurrentIdentity", mock.Anything)
	accounts.AssertNotCalled(t, "FindAccount", mock.Anything, mock.Anything)
}

func TestValidatorIgnoresNonSwitches(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(ids *MockIdentitySource, accounts *MockAccounts)
		allowed bool
	}{
		{
			name: "logged out session",
			setup: func(ids *MockIdentitySource, accounts *MockAccounts) {
				ids.On("CurrentIdentity", mock.Anything).Return("", false)
			},
			allowed: true,
		},
		{
			name: "same identity",
			setup: func(ids *MockIdentitySource, accounts *MockAccounts) {
				ids.On("CurrentIdentity", mock.Anything).Return("candidate", true)
			},
			allowed: true,
		},
		{
			name: "already holds the service",
			setup: func(ids *MockIdentitySource, accounts *MockAccounts) {
				ids.On("CurrentIdentity", mock.Anything).Return("current", true)
				accounts.On("FindAccount", mock.Anything, "current").Return(&authswitch.Account{
					ID:       "current",
					Services: map[string]*authswitch.Credential{"password": {Service: "password"}},
				}, nil)
			},
			allowed: false,
		},
		{
			name: "session account vanished",
			setup: func(ids *MockIdentitySource, accounts *MockAccounts) {
				ids.On("CurrentIdentity", mock.Anything).Return("current", true)
				accounts.On("FindAccount", mock.Anything, "current").Return(nil, authswitch.ErrAccountNotFound)
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p, ids, accounts := newUnitManager()
			tt.setup(ids, accounts)

			validateCalls := 0
			m.Register(authswitch.Callbacks{
				ValidateSwitch: func(context.Context, *authswitch.Account, *authswitch.Attempt) (bool, error) {
					validateCalls++
					return false, nil
				},
			})

			ctx := invocation.Begin(context.Background())
			attempt := switchAttempt("candidate", "password")
			attempt.Allowed = tt.allowed

			ok, err := p.validateHooks()[0](ctx, attempt)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok, "decision must be passed through")
			assert.Zero(t, validateCalls)

			_, attributed := authswitch.AttemptingUser(ctx)
			assert.False(t, attributed)

			ids.AssertExpectations(t)
			accounts.AssertExpectations(t)
		})
	}
}

func TestValidatorAttributesSwitch(t *testing.T) {
	metrics := new(MockMetrics)
	m, p, ids, accounts := newUnitManager(authswitch.WithMetrics(metrics))

	current := &authswitch.Account{
		ID:       "current",
		Services: map[string]*authswitch.Credential{"anonymous": {Service: "anonymous"}},
	}
	ids.On("CurrentIdentity", mock.Anything).Return("current", true).Once()
	accounts.On("FindAccount", mock.Anything, "current").Return(current, nil).Once()
	metrics.On("RecordSwitchAttempt", "password").Once()
	metrics.On("RecordSwitchDecision", "password", true).Twice()

	var firstSeen, secondSeen *authswitch.Account
	m.Register(authswitch.Callbacks{
		ValidateSwitch: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) (bool, error) {
			firstSeen = user
			return true, nil
		},
	})
	m.Register(authswitch.Callbacks{
		ValidateSwitch: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) (bool, error) {
			secondSeen = user
			return true, nil
		},
	})

	ctx := invocation.Begin(context.Background())
	attempt := switchAttempt("candidate", "password")

	for _, hook := range p.validateHooks() {
		ok, err := hook(ctx, attempt)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.Same(t, current, firstSeen)
	assert.Same(t, current, secondSeen, "second registration reuses the attribution")

	stored, ok := authswitch.AttemptingUser(ctx)
	require.True(t, ok)
	assert.Same(t, current, stored)

	ids.AssertExpectations(t)
	accounts.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestValidatorRecordsUpstreamDenialAsDenied(t *testing.T) {
	metrics := new(MockMetrics)
	m, p, ids, accounts := newUnitManager(authswitch.WithMetrics(metrics))

	current := &authswitch.Account{ID: "current"}
	ids.On("CurrentIdentity", mock.Anything).Return("current", true).Once()
	accounts.On("FindAccount", mock.Anything, "current").Return(current, nil).Once()
	metrics.On("RecordSwitchAttempt", "password").Once()
	metrics.On("RecordSwitchDecision", "password", false).Once()

	m.Register(authswitch.Callbacks{ValidateSwitch: allowAll})

	ctx := invocation.Begin(context.Background())
	attempt := switchAttempt("candidate", "password")
	attempt.Allowed = false

	hooks := p.validateHooks()
	require.Len(t, hooks, 1)
	ok, err := hooks[0](ctx, attempt)
	require.NoError(t, err)
	assert.True(t, ok, "the callback result is still returned")

	metrics.AssertNotCalled(t, "RecordSwitchDecision", "password", true)
	metrics.AssertExpectations(t)
}

func TestValidatorPropagatesValidateSwitchResult(t *testing.T) {
	veto := goerrors.New("nope", goerrors.CategoryAuth).WithTextCode("test-error")

	tests := []struct {
		name    string
		result  bool
		err     error
		wantOK  bool
		wantErr error
	}{
		{name: "allow", result: true, wantOK: true},
		{name: "deny", result: false, wantOK: false},
		{name: "raise", result: true, err: veto, wantOK: true, wantErr: veto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, p, ids, accounts := newUnitManager()
			ids.On("CurrentIdentity", mock.Anything).Return("current", true)
			accounts.On("FindAccount", mock.Anything, "current").Return(&authswitch.Account{ID: "current"}, nil)

			m.Register(authswitch.Callbacks{
				ValidateSwitch: func(context.Context, *authswitch.Account, *authswitch.Attempt) (bool, error) {
					return tt.result, tt.err
				},
			})

			ok, err := p.validateHooks()[0](invocation.Begin(context.Background()), switchAttempt("candidate", "password"))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr != nil {
				assert.Same(t, tt.wantErr, err, "errors are returned verbatim")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatorLookupFailureDenies(t *testing.T) {
	m, p, ids, accounts := newUnitManager()
	ids.On("CurrentIdentity", mock.Anything).Return("current", true)
	accounts.On("FindAccount", mock.Anything, "current").Return(nil, errors.New("db down"))

	m.Register(authswitch.Callbacks{OnSwitch: noopOutcome})

	ctx := invocation.Begin(context.Background())
	ok, err := p.validateHooks()[0](ctx, switchAttempt("candidate", "password"))
	assert.False(t, ok)
	require.Error(t, err)

	var richErr *goerrors.Error
	if assert.ErrorAs(t, err, &richErr) {
		assert.Equal(t, authswitch.TextCodeAccountLookupFailed, richErr.TextCode)
	}

	_, attributed := authswitch.AttemptingUser(ctx)
	assert.False(t, attributed)
}

func TestValidatorWithoutInvocation(t *testing.T) {
	m, p, ids, accounts := newUnitManager()
	ids.On("CurrentIdentity", mock.Anything).Return("current", true)
	accounts.On("FindAccount", mock.Anything, "current").Return(&authswitch.Account{ID: "current"}, nil)

	m.Register(authswitch.Callbacks{OnSwitch: noopOutcome})

	ok, err := p.validateHooks()[0](context.Background(), switchAttempt("candidate", "password"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, authswitch.ErrNoInvocation)
}

func TestOnNoAttemptingUserGate(t *testing.T) {
	m, p, ids, accounts := newUnitManager()

	var gated *authswitch.Attempt
	m.Register(authswitch.Callbacks{
		OnSwitch: noopOutcome,
		OnNoAttemptingUser: func(ctx context.Context, attempt *authswitch.Attempt) bool {
			gated = attempt
			return false
		},
	})

	attempt := switchAttempt("candidate", "password")
	ok, err := p.validateHooks()[0](invocation.Begin(context.Background()), attempt)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, attempt, gated)

	ids.AssertNotCalled(t, "CurrentIdentity", mock.Anything)
	accounts.AssertNotCalled(t, "FindAccount", mock.Anything, mock.Anything)
}

func TestDispatcherOnlyFiresForSwitches(t *testing.T) {
	sinkEvents := []authswitch.ActivityEvent{}
	sink := authswitch.ActivitySinkFunc(func(ctx context.Context, event authswitch.ActivityEvent) error {
		sinkEvents = append(sinkEvents, event)
		return nil
	})
	metrics := new(MockMetrics)
	m, p, _, _ := newUnitManager(authswitch.WithActivitySink(sink), authswitch.WithMetrics(metrics))

	var successes, failures []*authswitch.Account
	m.Register(authswitch.Callbacks{
		OnSwitch: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) error {
			successes = append(successes, user)
			return nil
		},
		OnSwitchFailure: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) error {
			failures = append(failures, user)
			return nil
		},
	})

	plain := invocation.Begin(context.Background())
	require.NoError(t, p.loginHooks()[0](plain, switchAttempt("candidate", "password")))
	require.NoError(t, p.failureHooks()[0](plain, switchAttempt("candidate", "password")))
	assert.Empty(t, successes)
	assert.Empty(t, failures)
	assert.Empty(t, sinkEvents)

	current := &authswitch.Account{ID: "current"}
	switched := invocation.Begin(context.Background())
	require.NoError(t, authswitch.SetAttemptingUser(switched, current))

	metrics.On("RecordSwitchOutcome", "password", true).Once()
	metrics.On("RecordSwitchOutcome", "password", false).Once()

	require.NoError(t, p.loginHooks()[0](switched, switchAttempt("candidate", "password")))
	failed := switchAttempt("candidate", "password")
	failed.Allowed = false
	failed.Err = errors.New("denied")
	require.NoError(t, p.failureHooks()[0](switched, failed))

	require.Len(t, successes, 1)
	require.Len(t, failures, 1)
	assert.Same(t, current, successes[0])
	assert.Same(t, current, failures[0])

	require.Len(t, sinkEvents, 2)
	assert.Equal(t, authswitch.ActivityEventSwitchSuccess, sinkEvents[0].EventType)
	assert.Equal(t, "current", sinkEvents[0].AttemptingUserID)
	assert.Equal(t, "candidate", sinkEvents[0].AttemptedUserID)
	assert.Equal(t, "password", sinkEvents[0].Service)
	assert.Equal(t, authswitch.ActivityEventSwitchFailure, sinkEvents[1].EventType)
	assert.Equal(t, "denied", sinkEvents[1].Metadata["error"])

	metrics.AssertExpectations(t)
}

func TestDispatcherPropagatesCallbackErrors(t *testing.T) {
	logger := &captureLogger{}
	sink := authswitch.ActivitySinkFunc(func(context.Context, authswitch.ActivityEvent) error {
		return errors.New("sink down")
	})
	m, p, _, _ := newUnitManager(authswitch.WithLogger(logger), authswitch.WithActivitySink(sink))

	boom := errors.New("observer failed")
	m.Register(authswitch.Callbacks{
		OnSwitch: func(context.Context, *authswitch.Account, *authswitch.Attempt) error {
			return boom
		},
	})

	ctx := invocation.Begin(context.Background())
	require.NoError(t, authswitch.SetAttemptingUser(ctx, &authswitch.Account{ID: "current"}))

	err := p.loginHooks()[0](ctx, switchAttempt("candidate", "password"))
	assert.Same(t, boom, err)
	assert.Equal(t, 1, logger.count("warn"), "sink errors are logged, not returned")
}
