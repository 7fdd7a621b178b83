package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/attestation"
	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/exec"
	"github.com/felixgeelhaar/linkrun/internal/exitcode"
	"github.com/felixgeelhaar/linkrun/internal/interchange"
	"github.com/felixgeelhaar/linkrun/internal/link"
	"github.com/felixgeelhaar/linkrun/internal/version"
)

type runOptions struct {
	name         string
	materials    []string
	products     []string
	runDir       string
	outDir       string
	ephemeralKey bool
	failOnError  bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --name NAME [flags] [-- COMMAND [ARGS...]]",
		Short: "Record materials, run a command and record products",
		Long: `Run records the given materials, runs the command, records the given
products and writes the link. Without a command only materials and products
are recorded.

The command's stdout and stderr are captured and printed once it exits.
A non-zero exit status is recorded, not treated as a failure, unless
--fail-on-error is set.`,
		Example: `  # Record a build step signed with a key
  linkrun run --name build -m src -p bin --key alice.pem -- make all

  # Use several hash algorithms and write YAML
  linkrun run --name package -m bin -p dist.tar -a sha256,sha512 --format yaml -- tar cf dist.tar bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "n", "", "step name recorded in the link (required)")
	flags.StringArrayVarP(&opts.materials, "materials", "m", nil, "path to record before running the command (repeatable)")
	flags.StringArrayVarP(&opts.products, "products", "p", nil, "path to record after running the command (repeatable)")
	flags.StringVarP(&opts.runDir, "run-dir", "d", "", "directory the command runs in (default: current directory)")
	flags.StringVarP(&opts.outDir, "output", "o", ".", "directory the link is written to, or - for stdout")
	flags.String("key", "", "PEM private key used to sign the link")
	flags.BoolVar(&opts.ephemeralKey, "ephemeral-key", false, "sign with a generated key and write its public key next to the link")
	flags.StringSliceP("algorithms", "a", nil, "hash algorithms (default from config, else sha256)")
	flags.String("format", "", "link format: json, cbor, yaml")
	flags.StringArray("exclude", nil, "glob of paths not to record (repeatable)")
	flags.StringArray("lstrip", nil, "prefix stripped from recorded paths (repeatable)")
	flags.BoolVar(&opts.failOnError, "fail-on-error", false, "exit with status 3 if the command exits non-zero")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runRun(cmd *cobra.Command, opts *runOptions, args []string) error {
	if err := validateStepName(opts.name); err != nil {
		return err
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config

	format, err := interchange.ParseFormat(stringOr(cmd.Flags(), "format", cfg.OutputFormat))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid --format", err)
	}

	var signer attestation.Signer
	keyPath := stringOr(cmd.Flags(), "key", cfg.KeyPath)
	var ephemeral *attestation.KeySigner
	switch {
	case opts.ephemeralKey:
		ephemeral, err = attestation.NewEphemeralSigner()
		if err != nil {
			return err
		}
		signer = ephemeral
	case keyPath != "":
		ks, err := attestation.LoadKeySignerFromFile(keyPath, []byte(os.Getenv("LINKRUN_KEY_PASSWORD")))
		if err != nil {
			return err
		}
		signer = ks
	}

	assembler := &link.Assembler{
		Recorder: artifact.NewRecorder(artifact.Options{
			ExcludePatterns: stringArrayOr(cmd.Flags(), "exclude", cfg.ExcludePatterns),
			LStripPaths:     stringArrayOr(cmd.Flags(), "lstrip", cfg.LStripPaths),
			Logger:          cmdCtx.Logger,
		}),
		Runner: &exec.Runner{
			Stdout: cmdCtx.Stdout,
			Stderr: cmdCtx.Stderr,
			Logger: cmdCtx.Logger,
		},
		Logger:  cmdCtx.Logger,
		Version: version.GetInfo().Short(),
	}

	mb, err := assembler.Run(link.Step{
		Name:      opts.name,
		RunDir:    opts.runDir,
		Materials: opts.materials,
		Products:  opts.products,
		Command:   args,
		HashNames: stringSliceOr(cmd.Flags(), "algorithms", cfg.HashAlgorithms),
	}, signer)
	if err != nil {
		return err
	}

	if err := writeLink(cmdCtx, mb, format, opts.outDir); err != nil {
		return err
	}
	if ephemeral != nil && opts.outDir != "-" {
		pubPath := filepath.Join(opts.outDir, opts.name+".pub")
		if err := os.WriteFile(pubPath, ephemeral.PublicKeyPEM(), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write public key", err).WithPath(pubPath)
		}
		cmdCtx.Status(true, "wrote public key %s", pubPath)
	}

	if opts.failOnError && len(args) > 0 && !mb.Signed.Byproducts.Succeeded() {
		return fmt.Errorf("%w: return-value %s", exitcode.ErrStepFailed, mb.Signed.Byproducts.ReturnValue)
	}
	return nil
}

// writeLink writes the encoded metablock to dir, or to stdout when dir is "-"
// validateStepName rejects names that would place the link or its public
// key outside the output directory.
func validateStepName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid step name %q", name)).
			WithSuggestion("Use a plain name without path separators; pick the directory with --output")
	}
	return nil
}

func writeLink(cmdCtx *CommandContext, mb *attestation.Metablock, format interchange.Format, dir string) error {
	data, err := mb.Encode(format)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode link", err)
	}

	if dir == "-" {
		_, err := cmdCtx.Stdout.Write(data)
		return err
	}

	p := filepath.Join(dir, mb.Filename(format))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write link", err).WithPath(p)
	}

	if mb.IsSigned() {
		cmdCtx.Status(true, "wrote %s (keyid %s)", p, mb.Signatures[0].KeyID)
	} else {
		cmdCtx.Status(true, "wrote %s (unsigned)", p)
	}
	return nil
}
