package exec

import "strings"

// Result describes the result of a run Cmd.
type Result struct {
	Command  string
	Dir      string
	ExitCode int
	// Output contains the combined stdout and stderr output of the
	// process.
	Output []byte
}

// StrOutput returns the combined process output as string.
func (r *Result) StrOutput() string {
	return string(r.Output)
}

// ExpectSuccess returns an ExitCodeError if the command exited with a code
// != 0.
func (r *Result) ExpectSuccess() error {
	if r.ExitCode != 0 {
		return &ExitCodeError{Result: r}
	}

	return nil
}

func (r *Result) trimmedOutput() string {
	return strings.TrimSpace(string(r.Output))
}
