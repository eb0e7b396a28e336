// Package appshell runs a command under a signal-aware context and exits
// with its code.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCanceled is reported when SIGINT or SIGTERM stopped the run.
const ExitCanceled = 130

// Main never returns.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	os.Exit(Exec(run, os.Args[1:], os.Stdout, os.Stderr))
}

// Exec runs run with a context canceled on SIGINT/SIGTERM and normalizes
// the exit code of a canceled run.
func Exec(run func(context.Context, []string, io.Writer, io.Writer) int, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = ExitCanceled
	}
	return code
}
