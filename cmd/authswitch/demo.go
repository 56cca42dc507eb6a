package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/goliatone/go-auth-switch"
	"github.com/goliatone/go-auth-switch/activitymap"
	"github.com/goliatone/go-auth-switch/config"
	"github.com/goliatone/go-auth-switch/metrics"
	"github.com/goliatone/go-auth-switch/pipeline"
	"github.com/goliatone/go-auth-switch/repository"
	"github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var configFile string
	var debug bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a nested credential switch against an in-memory store",
		Long: `Creates two anonymous sessions, then signs the first one up with a
password while a hook signs the second one up from inside the first attempt.
Every switch callback is printed as it fires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(configFile, map[string]any{
				"signing_key": "demo-" + uuid.NewString(),
				"dsn":         "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			})
			if err != nil {
				return err
			}
			if debug {
				opts.Debug = true
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Print debug logs")

	return cmd
}

func newLogger(debug bool) *glog.BaseLogger {
	level := glog.Info
	if debug {
		level = glog.Debug
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("authswitch"),
		glog.WithAddSource(false),
	)
}

func runDemo(ctx context.Context, out io.Writer, opts *config.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lgr := newLogger(opts.Debug)

	db, err := repository.OpenSQLite(opts.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewAccountRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	p := pipeline.New(repo, opts, pipeline.WithLogger(lgr.GetLogger("pipeline")))
	auditLogger := lgr.GetLogger("audit")
	m := authswitch.NewManager(p, p, repo,
		authswitch.WithLogger(lgr.GetLogger("switch")),
		authswitch.WithMetrics(metrics.NewPrometheusMetrics(reg)),
		authswitch.WithActivitySink(authswitch.ActivitySinkFunc(func(ctx context.Context, event authswitch.ActivityEvent) error {
			record := activitymap.Normalize(event)
			auditLogger.Info("switch activity",
				"actor_id", record.ActorID,
				"verb", record.Verb,
				"object_id", record.ObjectID,
				"metadata", record.Metadata,
			)
			return nil
		})),
	)
	defer m.StopAll()

	m.Register(authswitch.Callbacks{
		ValidateSwitch: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) (bool, error) {
			fmt.Fprintf(out, "validateSwitch: %s wants %s (%s)\n", user.ID, attempt.Type, attempt.MethodName)
			return true, nil
		},
		OnSwitch: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) error {
			fmt.Fprintf(out, "onSwitch: %s became %s\n", user.ID, attempt.User.ID)
			return nil
		},
		OnSwitchFailure: func(ctx context.Context, user *authswitch.Account, attempt *authswitch.Attempt) error {
			fmt.Fprintf(out, "onSwitchFailure: %s stays, %v\n", user.ID, attempt.Err)
			return nil
		},
	})

	s1, s2 := pipeline.NewSession(), pipeline.NewSession()
	for _, sess := range []*pipeline.Session{s1, s2} {
		res, err := p.Login(ctx, sess, pipeline.AnonymousLogin())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "session %s logged in anonymously as %s\n", sess.ID(), res.UserID)
	}

	var nestedErr error
	var nested authswitch.Stopper
	nested = p.ValidateLoginAttempt(func(ctx context.Context, attempt *authswitch.Attempt) (bool, error) {
		nested.Stop()
		_, nestedErr = p.Login(ctx, s2, pipeline.CreateUser("second@example.com", "second-password"))
		return true, nil
	})

	if _, err := p.Login(ctx, s1, pipeline.CreateUser("first@example.com", "first-password")); err != nil {
		return err
	}
	if nestedErr != nil {
		return nestedErr
	}

	return printCounters(out, reg)
}

func printCounters(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := ""
			for _, lp := range metric.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s%s %v", mf.GetName(), labels, metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}
