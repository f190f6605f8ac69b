// Package exec runs external commands.
package exec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

var (
	// DefaultLogFn is the default function to that command output and
	// debug messages are passed.
	DefaultLogFn = func(string, ...any) {}
	// DefaultLogPrefix is the default prefix that is prepended to messages
	// passed to the log function.
	DefaultLogPrefix = "exec: "
)

// Cmd represents a command that can be run.
type Cmd struct {
	name string
	args []string
	dir  string
	env  []string

	logFn         func(format string, v ...any)
	logPrefix     string
	expectSuccess bool
}

// Command returns a new Cmd struct.
// If name contains no path separators, the command path is resolved via the
// PATH environment variable when it is run.
// By default a command is run in the current working directory.
func Command(name string, arg ...string) *Cmd {
	return &Cmd{
		name:      name,
		args:      arg,
		logFn:     DefaultLogFn,
		logPrefix: DefaultLogPrefix,
	}
}

// Directory changes the directory in which the command is executed.
func (c *Cmd) Directory(dir string) *Cmd {
	c.dir = dir
	return c
}

// Env sets the environment variables that the process uses.
// Each element is in the format KEY=VALUE.
// If it is not set, the environment of the current process is inherited.
func (c *Cmd) Env(env []string) *Cmd {
	c.env = env
	return c
}

// LogFn sets the function to that command output and debug messages are
// passed.
func (c *Cmd) LogFn(fn func(format string, v ...any)) *Cmd {
	c.logFn = fn
	return c
}

// LogPrefix sets a prefix that is prepended to messages passed to the log
// function.
func (c *Cmd) LogPrefix(prefix string) *Cmd {
	c.logPrefix = prefix
	return c
}

// ExpectSuccess if called, Run() returns an ExitCodeError if the command did
// not exit with code 0.
func (c *Cmd) ExpectSuccess() *Cmd {
	c.expectSuccess = true
	return c
}

// Run executes the command and blocks until it terminated.
// Stdout and stderr of the process are combined, every output line is passed
// to the log function and recorded in the returned Result.
// If the context is cancelled or its deadline expires, the process is killed
// and the context error is returned.
func (c *Cmd) Run(ctx context.Context) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env

	outReader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	c.logFn(c.logPrefix+"running %q in directory %q\n", cmdString(cmd), cmd.Dir)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var outBuf bytes.Buffer
	firstLine := true
	in := bufio.NewScanner(outReader)
	for in.Scan() {
		c.logFn(c.logPrefix + in.Text() + "\n")

		if firstLine {
			firstLine = false
		} else {
			outBuf.WriteRune('\n')
		}

		outBuf.Write(in.Bytes())
	}

	if err := in.Err(); err != nil {
		_ = cmd.Wait()
		return nil, err
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		var ee *exec.ExitError
		if !errors.As(waitErr, &ee) {
			return nil, waitErr
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logFn(c.logPrefix+"command terminated with exit code: %d\n", cmd.ProcessState.ExitCode())

	result := Result{
		Command:  cmdString(cmd),
		Dir:      cmd.Dir,
		ExitCode: cmd.ProcessState.ExitCode(),
		Output:   outBuf.Bytes(),
	}
	if result.Dir == "" {
		result.Dir = "."
	}

	if c.expectSuccess && result.ExitCode != 0 {
		return nil, &ExitCodeError{Result: &result}
	}

	return &result, nil
}

func cmdString(cmd *exec.Cmd) string {
	// cmd.Args[0] contains the command name, cmd.Path the absolute command
	// path, omit cmd.Args[0] from the string
	if len(cmd.Args) > 1 {
		return cmd.Path + " " + strings.Join(cmd.Args[1:], " ")
	}

	return cmd.Path
}
