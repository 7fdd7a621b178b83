// Package link runs one supply-chain step and assembles the evidence for it:
// materials before, byproducts of the command, products after.
package link

import (
	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/attestation"
	"github.com/felixgeelhaar/linkrun/internal/exec"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/log"
	"github.com/felixgeelhaar/linkrun/internal/version"
)

// Step describes what to record and run
type Step struct {
	Name      string
	RunDir    string
	Materials []string
	Products  []string
	Command   []string
	HashNames []string
}

// Assembler records a step with configurable recorder options, runner and
// logger.
type Assembler struct {
	Recorder *artifact.Recorder
	Runner   *exec.Runner
	Logger   *log.Logger
	Version  string
}

// NewAssembler creates an Assembler with default recorder and runner
func NewAssembler() *Assembler {
	logger := log.DefaultLogger()
	return &Assembler{
		Recorder: artifact.NewRecorder(artifact.Options{Logger: logger}),
		Runner:   exec.NewRunner(),
		Logger:   logger,
		Version:  version.Version,
	}
}

// InTotoRun records materials, runs cmdArgs in runDir, records products and
// returns the assembled link, signed by signer when signer is non-nil.
// Unknown hash names fail before any file is touched.
func InTotoRun(name, runDir string, materialPaths, productPaths, cmdArgs []string, signer attestation.Signer, hashNames []string) (*attestation.Metablock, error) {
	return NewAssembler().Run(Step{
		Name:      name,
		RunDir:    runDir,
		Materials: materialPaths,
		Products:  productPaths,
		Command:   cmdArgs,
		HashNames: hashNames,
	}, signer)
}

// Run executes step. An empty Command skips execution and records empty
// byproducts.
func (a *Assembler) Run(step Step, signer attestation.Signer) (*attestation.Metablock, error) {
	logger := a.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	logger = logger.With("step", step.Name)

	recorder := a.Recorder
	if recorder == nil {
		recorder = artifact.NewRecorder(artifact.Options{Logger: logger})
	}
	runner := a.Runner
	if runner == nil {
		runner = exec.NewRunner()
	}

	algs, err := hashalg.Select(step.HashNames)
	if err != nil {
		return nil, err
	}

	logger.Debug("recording materials", "paths", step.Materials)
	materials, err := recorder.Record(step.Materials, algs)
	if err != nil {
		return nil, err
	}

	byproducts := exec.Byproducts{}
	if len(step.Command) > 0 {
		logger.Info("running command", "command", step.Command)
		bp, err := runner.Run(exec.Step{Cmd: step.Command, Workdir: step.RunDir})
		if err != nil {
			return nil, err
		}
		byproducts = *bp
		logger.Info("command finished", "return_value", byproducts.ReturnValue)
	}

	logger.Debug("recording products", "paths", step.Products)
	products, err := recorder.Record(step.Products, algs)
	if err != nil {
		return nil, err
	}

	command := make([]string, len(step.Command))
	copy(command, step.Command)

	mb := attestation.NewUnsigned(attestation.Link{
		Type:        attestation.LinkType,
		Name:        step.Name,
		Command:     command,
		Materials:   materials,
		Products:    products,
		Byproducts:  byproducts,
		Environment: attestation.GatherEnvironment(step.RunDir, a.Version),
	})

	if signer == nil {
		logger.Debug("no signer configured, link left unsigned")
		return mb, nil
	}
	if err := mb.Sign(signer); err != nil {
		return nil, err
	}
	logger.Info("link signed", "keyid", signer.KeyID())
	return mb, nil
}
