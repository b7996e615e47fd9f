package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command tree and maps the outcome to an exit code. An
// interrupt is a normal way to end a watch session and exits 0.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, newCommandContext(dialCloudWatch), args, stdout, stderr)
}

func execute(ctx context.Context, cmdCtx *commandContext, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(cmdCtx)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
