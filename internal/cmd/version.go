package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/version"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

func newVersionCmd() *cobra.Command {
	var (
		verbose bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			out := cmd.OutOrStdout()

			if asJSON {
				formatter, err := ux.NewFormatter("json", &ux.FormatterOptions{Writer: out})
				if err != nil {
					return err
				}
				return formatter.Format(info)
			}
			if verbose {
				_, err := fmt.Fprintln(out, info.String())
				return err
			}
			_, err := fmt.Fprintf(out, "linkrun %s\n", info.Short())
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}
