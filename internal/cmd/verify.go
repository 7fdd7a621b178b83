package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/linkrun/internal/attestation"
	"github.com/felixgeelhaar/linkrun/internal/errors"
)

type verifyOptions struct {
	keys           []string
	threshold      int
	requireSuccess bool
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify --key PUBKEY [flags] LINK...",
		Short: "Verify link signatures",
		Long: `Verify checks that each link carries a valid signature by one of the given
public keys over its canonical form. Any link that fails makes the command
exit with status 4.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.keys, "key", nil, "PEM public key to trust (repeatable, required)")
	flags.IntVar(&opts.threshold, "threshold", 1, "number of distinct trusted keys that must have signed")
	flags.BoolVar(&opts.requireSuccess, "require-success", false, "also require the recorded command to have exited 0")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	verifier, err := attestation.NewVerifierFromFiles(opts.keys,
		attestation.WithThreshold(opts.threshold),
		attestation.WithRequireSuccess(opts.requireSuccess),
	)
	if err != nil {
		return err
	}

	var firstErr error
	for _, p := range args {
		if err := verifyFile(verifier, p); err != nil {
			cmdCtx.Status(false, "%s: %v", p, err)
			cmdCtx.Logger.WithError(err).Debug("verification failed", "path", p)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		cmdCtx.Status(true, "%s", p)
	}
	return firstErr
}

func verifyFile(v *attestation.Verifier, p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return errors.NewReadError(p, err)
	}
	mb, err := attestation.Decode(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVerifyFailed, "not a link", err).WithPath(p)
	}
	return v.Verify(mb)
}
