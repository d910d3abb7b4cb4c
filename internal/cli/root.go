// Package cli implements the linkgraph command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/logging"
	"github.com/mesh-intelligence/linkgraph/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	jsonMode  bool
	logLevel  string
}

var flags rootFlags

// session is the state PersistentPreRunE prepares for subcommands.
type session struct {
	configDir string
	settings  settings
	logger    *zap.Logger
}

var current session

// NewRootCmd creates the top-level "linkgraph" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}
	current = session{}

	root := &cobra.Command{
		Use:   "linkgraph",
		Short: "Replay and audit attribute-tagged multigraph scenarios",
		Long: "linkgraph builds in-memory hyperlink graphs from YAML scenarios, applies\n" +
			"their operations and checks that every edge is mirrored by a backlink.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: prepare,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if current.logger != nil {
				_ = current.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())

	return root
}

// prepare resolves the config directory, loads config.yaml and builds the
// logger.
func prepare(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(exitSysError, fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := loadSettings(dir)
	if err != nil {
		return exitError(exitUserError, err)
	}
	if flags.logLevel != "" {
		s.LogLevel = flags.logLevel
	}
	if flags.jsonMode {
		s.Output = outputJSON
	}

	logger, err := logging.NewLogger(s.LogLevel, s.LogFormat)
	if err != nil {
		return exitError(exitSysError, fmt.Errorf("build logger: %w", err))
	}
	current = session{configDir: dir, settings: s, logger: logger}
	logger.Debug("config loaded",
		zap.String("config_dir", dir),
		zap.String("fatal_policy", s.FatalPolicy),
		zap.Bool("metrics", s.Metrics))
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "linkgraph:", err)
	os.Exit(exitCode(err))
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// exitError wraps err with the given exit code.
func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// exitCode returns the exit code for err. Errors without one, such as
// cobra's argument errors, are user errors.
func exitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return exitUserError
}
