package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/config"
	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or create linkrun configuration",
		Long: `Manage the project configuration stored in ./` + config.DefaultFile + `.

Examples:
  # View the effective configuration
  linkrun config view

  # Write a default configuration file
  linkrun config init`,
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigView,
	}
	viewCmd.Flags().String("format", "yaml", "output format: yaml, json")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(viewCmd, initCmd)
	return configCmd
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmdCtx.Stdout})
	if err != nil {
		return err
	}
	return formatter.Format(cmdCtx.Config)
}

// runConfigInit does not load the configuration first: the file it is about
// to create may not exist yet.
func runConfigInit(cmd *cobra.Command, args []string) error {
	p, _ := cmd.Flags().GetString("config")
	if p == "" {
		p = config.DefaultFile
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(p); err == nil && !force {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s already exists", p)).
			WithPath(p).
			WithSuggestion("Use --force to overwrite it")
	}

	if err := config.Default().Save(p); err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		noColor, _ := cmd.Flags().GetBool("no-color")
		ux.NewStyles(noColor).Status(cmd.ErrOrStderr(), true, "wrote %s", p)
	}
	return nil
}
