// Package cli is the smartwaste command line: the HTTP server plus a
// single-user client that keeps its session in a local SQLite file.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smartwaste/civic-core/internal/core/service"
	"github.com/smartwaste/civic-core/internal/infrastructure/db/sqlite"
	"github.com/smartwaste/civic-core/internal/pkg/config"
	"github.com/smartwaste/civic-core/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

// options are the persistent flags shared by every command.
type options struct {
	statePath string
	logLevel  string
	verbose   bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "smartwaste",
		Short: "Smart Waste civic core: sessions, roles and the waste assistant",
		Long: `smartwaste runs the Smart Waste HTTP API and doubles as a local client.

The client commands keep the current user in a SQLite state file, so a login
survives between invocations until you log out.

Quick Start:
  smartwaste login --as citizen     # demo login by role
  smartwaste whoami                 # show the current user
  smartwaste switch-role worker     # become the worker
  smartwaste chat                   # talk to the assistant
  smartwaste serve                  # run the HTTP API`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.statePath, "state", "", "Path of the local session database (default $SQLITE_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (default $LOG_LEVEL)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Shorthand for --log-level debug")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newSwitchRoleCmd(opts),
		newRolesCmd(opts),
		newChatCmd(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func (o *options) config(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.statePath != "" {
		cfg.SQLite.Path = o.statePath
	}
	switch {
	case o.verbose:
		cfg.LogLevel = "debug"
	case o.logLevel != "":
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

// cliLogger writes to stderr so command output stays clean.
func cliLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	return logger.New(logger.Options{Level: level, Pretty: true, Output: cmd.ErrOrStderr()})
}

// localSession is the single-user session backed by the state file.
type localSession struct {
	*service.Session
	cfg      *config.Config
	log      zerolog.Logger
	registry *service.Registry
	close    func() error
}

func (o *options) openSession(cmd *cobra.Command) (*localSession, error) {
	ctx := cmd.Context()
	cfg, err := o.config(ctx)
	if err != nil {
		return nil, err
	}
	log := cliLogger(cmd, cfg)

	conn, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	registry, err := service.NewDemoRegistry(cfg.DemoPassword)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	sess := service.NewSession(sqlite.NewSessionStore(conn), registry, service.StorageKey, log)
	return &localSession{Session: sess, cfg: cfg, log: log, registry: registry, close: conn.Close}, nil
}
