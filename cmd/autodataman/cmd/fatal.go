package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
)

// exit codes
const (
	exitOK        = 0
	exitUsage     = 1
	exitMalformed = 3
	exitNotFound  = 4
	exitRemote    = 5
	exitChecksum  = 6
	exitCorrupt   = 7
	exitAmbiguous = 8
	exitIO        = 9
	exitCommit    = 10
	exitTransform = 11
)

var (
	// globals used to patch over calls to os.Exit() during test

	osExit = os.Exit

	// output of commands, patched during test
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// exitCode maps an error onto the exit code of its class
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, status.ErrCommitFailed):
		return exitCommit
	case errors.Is(err, status.ErrChecksumMismatch):
		return exitChecksum
	case errors.Is(err, status.ErrCorruptLocalRepo):
		return exitCorrupt
	case errors.Is(err, status.ErrAmbiguousRemoval):
		return exitAmbiguous
	case errors.Is(err, status.ErrTransformFailed):
		return exitTransform
	case errors.Is(err, status.ErrInvalidLocalRepo):
		return exitIO
	case errors.Is(err, status.ErrRemoteFetch):
		return exitRemote
	case errors.Is(err, status.ErrMalformedMetadata):
		return exitMalformed
	case errors.Is(err, status.ErrNotFound),
		errors.Is(err, status.ErrDatasetNotFound),
		errors.Is(err, status.ErrVersionNotFound):
		return exitNotFound
	case errors.Is(err, status.ErrIO):
		return exitIO
	default:
		return exitUsage
	}
}

func wrapFatalln(msg string, err error) {
	if err == nil {
		wrapFatalWithCodef(exitUsage, "%s", msg)
		return
	}
	wrapFatalWithCodef(exitCode(err), "%v", fmt.Errorf(msg+": %w", err))
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintln(stderr, color.RedString(format, args...))
	osExit(code)
}

// warn prints a highlighted warning to stderr
func warn(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(stderr, color.YellowString("WARNING: "+format, args...))
}

func logStdOut(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}
