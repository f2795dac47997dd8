package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/model"
	"go.uber.org/zap"
)

// CommandRunner knows how to run a post-download command on a file located in some directory.
//
// The command is a template configured for a format and action tag: the file name is appended to it.
type CommandRunner interface {
	Run(ctx context.Context, dir, command, filename string) error
}

// ShellRunner runs post-download commands with "sh -c", from the directory holding the file.
//
// The output of the command goes to Stdout and Stderr when set, and is discarded otherwise.
type ShellRunner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// Run a command template on some file
func (r ShellRunner) Run(ctx context.Context, dir, command, filename string) error {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", command+" "+shellQuote(filename))
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %w: %s", command, filename, err, msg)
		}
		return fmt.Errorf("%s %s: %w", command, filename, err)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// transform applies the configured post-download action to every file in the staging directory.
//
// Files declaring no action, or an action without a configured command, are left untouched.
// The original file is removed once its command succeeds.
func (f *fetcher) transform(ctx context.Context, stagingVersion string, files []model.File) error {
	if f.config == nil {
		f.l.Debug("no configuration, skipping post-download actions")
		return nil
	}
	dir := realPath(f.fs, localPath(f.req.LocalRepo, model.VersionDir(f.req.Dataset, stagingVersion)))

	for _, file := range files {
		if file.OnDownload == "" {
			continue
		}
		command, ok := f.config.Command(file.Format, file.OnDownload)
		if !ok {
			f.l.Debug("no command configured, skipping post-download action",
				zap.String("file", file.Filename),
				zap.String("format", file.Format),
				zap.String("action", file.OnDownload),
			)
			continue
		}

		f.l.Info("running post-download command", zap.String("file", file.Filename), zap.String("command", command))
		if err := f.runner.Run(ctx, dir, command, file.Filename); err != nil {
			return status.ErrTransformFailed.Wrap(err)
		}

		original := localPath(f.req.LocalRepo, model.DataFilePath(f.req.Dataset, stagingVersion, file.Filename))
		if err := f.fs.Remove(original); err != nil && !os.IsNotExist(err) {
			return status.ErrIO.Wrap(fmt.Errorf("removing %s after post-download command: %w", file.Filename, err))
		}
	}
	return nil
}
