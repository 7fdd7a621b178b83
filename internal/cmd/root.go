package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the linkrun command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linkrun",
		Short: "Record supply-chain steps as signed link metadata",
		Long: `linkrun records one step of a software supply chain. It hashes the
materials a command consumes, runs the command, hashes the products it leaves
behind and writes the result, optionally signed, as link metadata.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./"+defaultConfigName+" if present)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("quiet", "q", false, "suppress status output")

	rootCmd.AddCommand(
		newRunCmd(),
		newRecordCmd(),
		newVerifyCmd(),
		newInspectCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
