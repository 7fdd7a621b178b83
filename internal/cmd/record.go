package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [flags] PATH...",
		Short: "Hash files without running a command",
		Long: `Record traverses each path, following symlinks, and prints the digest of
every regular file it finds. Nothing is written to disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRecord,
	}

	flags := cmd.Flags()
	flags.StringSliceP("algorithms", "a", nil, "hash algorithms (default from config, else sha256)")
	flags.StringArray("exclude", nil, "glob of paths not to record (repeatable)")
	flags.StringArray("lstrip", nil, "prefix stripped from recorded paths (repeatable)")
	flags.String("format", "text", "output format: text, json, yaml")
	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config

	algs, err := hashalg.Select(stringSliceOr(cmd.Flags(), "algorithms", cfg.HashAlgorithms))
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmdCtx.Stdout,
		NoColor: cmdCtx.NoColor,
	})
	if err != nil {
		return err
	}

	recorder := artifact.NewRecorder(artifact.Options{
		ExcludePatterns: stringArrayOr(cmd.Flags(), "exclude", cfg.ExcludePatterns),
		LStripPaths:     stringArrayOr(cmd.Flags(), "lstrip", cfg.LStripPaths),
		Logger:          cmdCtx.Logger,
	})
	artifacts, err := recorder.Record(args, algs)
	if err != nil {
		return err
	}

	if format == "text" || format == "" {
		return formatter.Format(recordListing{artifacts: artifacts, algs: algs})
	}
	return formatter.Format(artifacts)
}

// recordListing prints one line per file and algorithm in the style of
// sha256sum.
type recordListing struct {
	artifacts artifact.Map
	algs      []hashalg.Algorithm
}

func (l recordListing) RenderText(w io.Writer, s *ux.Styles) error {
	multi := len(l.algs) > 1
	for _, p := range l.artifacts.Paths() {
		td := l.artifacts[p]
		for _, alg := range l.algs {
			line := fmt.Sprintf("%s  %s", td[alg.String()], p)
			if multi {
				line = fmt.Sprintf("%s %s", s.Muted.Render(strings.ToUpper(alg.String())), line)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
