package blast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExternalTool matches every *ExternalToolError via errors.Is.
var ErrExternalTool = errors.New("external tool failed")

// ExternalToolError reports a failed engine invocation. ExitCode is -1 when
// the process never started or was killed.
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Command returns the command line that failed.
func (e *ExternalToolError) Command() string {
	return strings.Join(append([]string{e.Tool}, e.Args...), " ")
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExternalTool) hold for every ExternalToolError.
func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }
