package cmd

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/linkrun/internal/config"
	"github.com/felixgeelhaar/linkrun/internal/log"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

const defaultConfigName = config.DefaultFile

// CommandContext holds the persistent flags, the loaded configuration and
// the logger for one command invocation.
type CommandContext struct {
	// Output control
	Quiet   bool
	NoColor bool

	Config *config.Config
	Logger *log.Logger
	Styles *ux.Styles

	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandContext loads configuration and builds the logger. Commands
// call it at the top of RunE. Flags given on the command line override the
// config file.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	lc := cfg.LoggerConfig()
	lc.Output = log.NewOutput(cmd.ErrOrStderr())
	logger := log.New(lc)
	log.SetDefaultLogger(logger)

	return &CommandContext{
		Quiet:   quiet,
		NoColor: noColor,
		Config:  cfg,
		Logger:  logger,
		Styles:  ux.NewStyles(noColor),
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}, nil
}

// Status prints a status line to stderr unless --quiet is set
func (c *CommandContext) Status(ok bool, format string, args ...any) {
	if c.Quiet {
		return
	}
	c.Styles.Status(c.Stderr, ok, format, args...)
}

// stringSliceOr returns the flag's values when it was given on the command
// line and fallback otherwise.
func stringSliceOr(flags *pflag.FlagSet, name string, fallback []string) []string {
	if !flags.Changed(name) {
		return fallback
	}
	values, _ := flags.GetStringSlice(name)
	return values
}

// stringArrayOr is stringSliceOr for flags that must not split on commas
func stringArrayOr(flags *pflag.FlagSet, name string, fallback []string) []string {
	if !flags.Changed(name) {
		return fallback
	}
	values, _ := flags.GetStringArray(name)
	return values
}

// stringOr returns the flag's value when it was given on the command line
// and fallback otherwise.
func stringOr(flags *pflag.FlagSet, name string, fallback string) string {
	if !flags.Changed(name) {
		return fallback
	}
	value, _ := flags.GetString(name)
	return value
}
