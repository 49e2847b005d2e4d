// Command recognize identifies the song in one audio file and prints the
// outcome as a single JSON line on stdout.
//
//	recognize [flags] <file-path>
//	recognize [flags] -- <file-path>
//
// Failures print {"error": "<message>"} instead. Logs and help go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/himanishpuri/songid/internal/shim"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and maps its outcome to an exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var reported *shim.ReportedError
	if !errors.As(err, &reported) {
		// stdout itself failed; nothing more can be said there
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.exitZero {
		return 0
	}
	return 1
}
