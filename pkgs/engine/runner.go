package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// CommandRunner executes one fully-substituted shell command and reports its
// exit status. Zero is success. The engine never spawns processes directly;
// everything goes through this collaborator so the check phase and tests can
// stay process-free.
type CommandRunner interface {
	Run(ctx context.Context, command string) (int, error)
}

// ShellRunner runs commands through a shell, wiring the process's standard
// streams by default.
type ShellRunner struct {
	Shell  string // shell binary, defaults to "sh"
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Run executes command as `<shell> -c <command>` and returns its exit
// status. A nonzero exit is reported through the status, not the error; the
// error is reserved for failures to start the process at all.
func (r *ShellRunner) Run(ctx context.Context, command string) (int, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Stdin = r.Stdin
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
