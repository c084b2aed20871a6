// Package cli implements the almanac command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/internal/paths"
	"github.com/mesh-intelligence/almanac/pkg/almanac"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks bad input or configuration.
func userError(err error) error { return &exitError{code: exitUserError, err: err} }

// sysError marks storage and filesystem failures.
func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// app holds global flag values and the settings resolved from them.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagDebug     bool

	configDir string
	settings  settings
}

// NewRootCmd creates the top-level "almanac" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "almanac",
		Short: "Import, export and migrate Almanac planner data",
		Long: `Almanac moves planner data (tasks, projects, categories, daily plans,
the work schedule and journal entries) between its local store and JSON
bundles. Bundles from other to-do, project and calendar tools are
converted on import.`,
		Version:           almanac.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flagDebug, "debug", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newResetCmd(a))
	root.AddCommand(newDetectCmd())
	return root
}

// Execute runs the root command with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "almanac:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitUserError
	}
	return exitSuccess
}

// setup resolves directories, loads config.yaml and starts the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "version", "detect", "help", "completion":
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	if err := v.BindPFlag(cfgKeyDebug, cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
		return sysError(err)
	}

	s, err := readSettings(v)
	if err != nil {
		return userError(err)
	}
	s.Store.DataDir, err = paths.ResolveDataDir(a.flagDataDir, s.Store.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	logCfg := logger.Config{Debug: s.Debug}
	if s.Store.Backend == types.BackendSQLite {
		logCfg.LogDir = paths.LogDir(s.Store.DataDir)
	}
	if err := logger.Init(logCfg); err != nil {
		return sysError(fmt.Errorf("init logger: %w", err))
	}
	logger.Debug("settings resolved", "config_dir", configDir, "data_dir", s.Store.DataDir,
		"backend", s.Store.Backend, "chunk_size", s.Store.GetChunkSize(), "yield_delay", s.YieldDelay)

	a.configDir = configDir
	a.settings = s
	return nil
}
