package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/attestation"
	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] LINK",
		Short: "Show the contents of a link",
		Long: `Inspect decodes a link in any supported format and prints a summary:
the command, its exit status, signatures, and which files the step added,
removed or modified. Signatures are listed, not verified.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().String("format", "text", "output format: text, json, yaml")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.NewReadError(args[0], err)
	}
	mb, err := attestation.Decode(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "not a link", err).WithPath(args[0])
	}

	format, _ := cmd.Flags().GetString("format")
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmdCtx.Stdout,
		NoColor: cmdCtx.NoColor,
	})
	if err != nil {
		return err
	}

	if format == "text" || format == "" {
		return formatter.Format(linkSummary{mb})
	}
	return formatter.Format(mb)
}

type linkSummary struct {
	mb *attestation.Metablock
}

func (l linkSummary) RenderText(w io.Writer, s *ux.Styles) error {
	link := l.mb.Signed

	fmt.Fprintln(w, s.Title.Render("Link "+link.Name))
	s.Field(w, "command", strings.Join(link.Command, " "))
	s.Field(w, "exit", link.Byproducts.ReturnValue)
	s.Field(w, "materials", fmt.Sprintf("%d", len(link.Materials)))
	s.Field(w, "products", fmt.Sprintf("%d", len(link.Products)))

	if l.mb.IsSigned() {
		for _, sig := range l.mb.Signatures {
			s.Field(w, "signed by", sig.KeyID)
		}
	} else {
		s.Field(w, "signed by", s.Warning.Render("unsigned"))
	}

	added, removed, modified := link.Materials.Diff(link.Products)
	for _, p := range added {
		fmt.Fprintf(w, "  %s %s\n", s.Success.Render("+"), p)
	}
	for _, p := range removed {
		fmt.Fprintf(w, "  %s %s\n", s.Error.Render("-"), p)
	}
	for _, p := range modified {
		fmt.Fprintf(w, "  %s %s\n", s.Warning.Render("~"), p)
	}
	return nil
}
