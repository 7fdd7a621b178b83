package exec

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/felixgeelhaar/linkrun/internal/artifact"
	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/log"
)

// Runner executes a step, captures its output and re-emits it to its own
// Stdout and Stderr once the command has finished.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// NewRunner creates a Runner that re-emits to the process's own streams.
func NewRunner() *Runner {
	return &Runner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: log.DefaultLogger(),
	}
}

// RunCommand runs argv in runDir with a default Runner. argv[0] is the
// executable. An empty runDir means the current working directory.
func RunCommand(argv []string, runDir string) (*Byproducts, error) {
	return NewRunner().Run(Step{Cmd: argv, Workdir: runDir})
}

// Run executes the step and returns its byproducts. A non-zero exit status
// is not an error; failing to start the command is.
func (r *Runner) Run(step Step) (*Byproducts, error) {
	if len(step.Cmd) == 0 {
		return nil, errors.NewEmptyCommandError()
	}
	logger := r.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	executable := step.Cmd[0]
	args := make([]string, 0, len(step.Cmd)-1)
	for _, arg := range step.Cmd[1:] {
		// Path-like arguments are resolved for diagnostics only. The child
		// always receives the argument exactly as given.
		if _, err := artifact.NewVirtualTargetPath(arg); err == nil {
			if resolved, err := canonicalize(arg); err == nil {
				logger.Debug("argument resolves to path", "arg", arg, "path", resolved)
			}
		}
		args = append(args, arg)
	}

	cmd := osexec.Command(executable, args...)
	if step.Workdir != "" {
		cmd.Dir = step.Workdir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running command", "executable", executable, "args", args, "dir", step.Workdir)
	if err := cmd.Run(); err != nil {
		var exitErr *osexec.ExitError
		if !stderrors.As(err, &exitErr) {
			return nil, errors.NewSpawnError(executable, err)
		}
	}

	if err := r.emit(stdout.Bytes(), stderr.Bytes()); err != nil {
		return nil, err
	}

	if !utf8.Valid(stdout.Bytes()) {
		return nil, errors.NewNonUTF8OutputError("stdout")
	}
	if !utf8.Valid(stderr.Bytes()) {
		return nil, errors.NewNonUTF8OutputError("stderr")
	}

	return &Byproducts{
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		ReturnValue: returnValue(cmd.ProcessState),
	}, nil
}

func (r *Runner) emit(stdout, stderr []byte) error {
	if r.Stdout != nil {
		if _, err := r.Stdout.Write(stdout); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "cannot re-emit stdout", err)
		}
	}
	if r.Stderr != nil {
		if _, err := r.Stderr.Write(stderr); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "cannot re-emit stderr", err)
		}
	}
	return nil
}

func returnValue(state *os.ProcessState) string {
	if state == nil || !state.Exited() {
		return SignalTerminated
	}
	return strconv.Itoa(state.ExitCode())
}

// canonicalize resolves p against the current working directory and
// follows symlinks. It fails when p does not exist.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
