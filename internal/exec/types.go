package exec

import (
	"strconv"
)

// SignalTerminated is recorded as the return value when the command was
// killed by a signal and has no exit code.
const SignalTerminated = "Process terminated by signal"

// Step describes a single command to execute
type Step struct {
	Cmd     []string // Executable and arguments
	Workdir string   // Working directory; empty means the caller's cwd
}

// Byproducts is the captured, observable result of a command. It always
// encodes as exactly three keys: stdout, stderr and return-value.
type Byproducts struct {
	Stdout      string `json:"stdout" yaml:"stdout" cbor:"stdout"`
	Stderr      string `json:"stderr" yaml:"stderr" cbor:"stderr"`
	ReturnValue string `json:"return-value" yaml:"return-value" cbor:"return-value"`
}

// ExitCode returns the numeric exit code. ok is false when the process was
// terminated by a signal or nothing was run.
func (b *Byproducts) ExitCode() (code int, ok bool) {
	code, err := strconv.Atoi(b.ReturnValue)
	if err != nil {
		return 0, false
	}
	return code, true
}

// Succeeded reports whether the command exited with status zero
func (b *Byproducts) Succeeded() bool {
	code, ok := b.ExitCode()
	return ok && code == 0
}

// ToMap returns the three-key interchange form
func (b *Byproducts) ToMap() map[string]string {
	return map[string]string{
		"stdout":       b.Stdout,
		"stderr":       b.Stderr,
		"return-value": b.ReturnValue,
	}
}
