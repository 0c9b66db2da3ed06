// Package runner executes external commands synchronously and reports their outcome.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Command describes a single external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// ReadOnly marks commands that only inspect state. They still run in dry-run mode.
	ReadOnly bool
}

// New builds a mutating command run in dir.
func New(dir, name string, args ...string) Command {
	return Command{Name: name, Args: args, Dir: dir}
}

// Query builds a read-only command run in dir.
func Query(dir, name string, args ...string) Command {
	return Command{Name: name, Args: args, Dir: dir, ReadOnly: true}
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Error reports a command that could not start or exited non-zero.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	detail := e.Stderr
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %s", e.Command, detail)
	}
	return fmt.Sprintf("%s (exit %d): %s", e.Command, e.ExitCode, detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, c Command) (string, error)
}

// Reporter receives the progress lines a Runner emits.
type Reporter interface {
	Command(line string)
	Warning(format string, a ...any)
	VerboseLog(format string, a ...any)
}

// Exec runs commands as child processes.
type Exec struct {
	UI     Reporter
	DryRun bool
}

// NewExec returns an Exec reporting to ui.
func NewExec(ui Reporter, dryRun bool) *Exec {
	return &Exec{UI: ui, DryRun: dryRun}
}

// Run blocks until the command exits and returns its stdout.
func (e *Exec) Run(ctx context.Context, c Command) (string, error) {
	line := c.String()
	if e.DryRun && !c.ReadOnly {
		e.UI.Warning("[DRY-RUN] Would run: %s", line)
		return "", nil
	}

	e.UI.Command(line)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		re := &Error{
			Command:  line,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			re.ExitCode = exitErr.ExitCode()
		}
		if e.DryRun {
			e.UI.VerboseLog("ignoring failed query during dry-run: %v", re)
			return "", nil
		}
		return "", re
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		e.UI.VerboseLog("%s", out)
	}
	return stdout.String(), nil
}
