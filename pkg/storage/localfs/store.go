// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/status"
	"github.com/spf13/afero"
)

const putStagePattern = ".put-stage-*"

// New creates a new local file system backed storage model, rooted at some directory.
//
// Keys are slash-separated paths relative to the root.
func New(fs afero.Fs, root string) storage.Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &localFS{
		fs:   fs,
		root: root,
	}
}

type localFS struct {
	fs   afero.Fs
	root string
}

// resolve maps a key to a path under the root, rejecting keys escaping it
func (l *localFS) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, `\`) {
		return "", status.ErrInvalidKey.Wrapf("%q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	pth, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(pth)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	pth, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	fi, err := l.fs.Stat(pth)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotFound.Wrapf("%s", pth)
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, status.ErrNotFound.Wrapf("%s is a directory", pth)
	}
	return l.fs.Open(pth)
}

// Put overwrites the object stored at key.
//
// The content is first written to a sibling staging file, then renamed into place,
// so a failed write never leaves a truncated object behind.
func (l *localFS) Put(ctx context.Context, key string, source io.Reader) error {
	pth, err := l.resolve(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(pth)
	fi, err := l.fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("ensuring directory for %q: %w", key, err)
	}
	if !fi.IsDir() {
		return status.ErrNotADirectory.Wrapf("%s", dir)
	}

	target, err := afero.TempFile(l.fs, dir, putStagePattern)
	if err != nil {
		return fmt.Errorf("create record for %q: %w", key, err)
	}
	staged := target.Name()
	defer func() {
		_ = l.fs.Remove(staged)
	}()

	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return fmt.Errorf("write record for %q: %w", key, err)
	}
	if err = target.Close(); err != nil {
		return fmt.Errorf("close record for %q: %w", key, err)
	}
	if err = l.fs.Rename(staged, pth); err != nil {
		return fmt.Errorf("commit record for %q: %w", key, err)
	}
	return nil
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	pth, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(pth); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	if l.root == "" {
		return localfs
	}
	return localfs + "@" + l.root
}
