package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	faaskeeper "github.com/ls-2018/faaskeeper-go"
	"github.com/ls-2018/faaskeeper-go/logging"
	"github.com/ls-2018/faaskeeper-go/provider"
)

// GlobalFlags are the flags defined on the root command and inherited by
// every subcommand, mirroring etcdctl's own GlobalFlags shape.
type GlobalFlags struct {
	ListenPort     int
	RequestTimeout time.Duration
	StopTimeout    time.Duration
	RateLimit      float64
	Debug          bool
	LogFile        string
}

var globalFlags GlobalFlags

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "faaskeeper-cli",
		Short: "A CLI client for the faaskeeper coordination service",
	}

	root.PersistentFlags().IntVar(&globalFlags.ListenPort, "listen-port", 0, "local port for the response listener (0 = ephemeral)")
	root.PersistentFlags().DurationVar(&globalFlags.RequestTimeout, "request-timeout", 5*time.Second, "per-request timeout awaiting an indirect reply")
	root.PersistentFlags().DurationVar(&globalFlags.StopTimeout, "stop-timeout", 5*time.Second, "time budget to drain the work queue on shutdown")
	root.PersistentFlags().Float64Var(&globalFlags.RateLimit, "rate-limit", 0, "outbound requests per second to the provider (0 = unlimited)")
	root.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "enable development logging")
	root.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "write JSON logs to this rotating file instead of stdout/stderr")

	root.AddCommand(
		newCreateCommand(),
		newGetCommand(),
		newSetCommand(),
		newDeleteCommand(),
		newExistsCommand(),
		newChildrenCommand(),
	)
	return root
}

// mustSessionFromCmd builds a Session backed by an in-memory provider, the
// way this module's CLI demo exercises the core without a real cloud
// backend (see provider.MemoryProvider's doc comment).
func mustSessionFromCmd(cmd *cobra.Command) (*faaskeeper.Session, func()) {
	log, err := newCLILogger()
	if err != nil {
		exitWithError(err)
	}

	clock := clockwork.NewRealClock()
	prov := provider.NewMemoryProvider(clock, log)

	cfg := faaskeeper.Config{
		Provider:       prov,
		ListenPort:     globalFlags.ListenPort,
		RequestTimeout: globalFlags.RequestTimeout,
		StopTimeout:    globalFlags.StopTimeout,
		RateLimit:      globalFlags.RateLimit,
		Logger:         log,
		Clock:          clock,
	}

	session, err := faaskeeper.NewSession(cmd.Context(), cfg)
	if err != nil {
		exitWithError(err)
	}

	return session, func() {
		if stopErr := session.Stop(); stopErr != nil {
			fmt.Fprintln(os.Stderr, stopErr)
		}
	}
}

// newCLILogger builds the logger every subcommand's session runs with: a
// rotating JSON file sink when --log-file is set, otherwise the usual
// production/development console logger selected by --debug.
func newCLILogger() (*zap.Logger, error) {
	if globalFlags.LogFile != "" {
		return logging.NewFileLogger(logging.FileConfig{Path: globalFlags.LogFile}), nil
	}
	if globalFlags.Debug {
		return logging.NewDevelopment()
	}
	return logging.New()
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
