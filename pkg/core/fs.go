package core

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// localPath resolves a slash-separated key under the root of a local repository
func localPath(root, key string) string {
	return filepath.Join(root, filepath.FromSlash(key))
}

// realPath yields the path on the OS file system, for external commands
func realPath(fs afero.Fs, pth string) string {
	if base, ok := fs.(*afero.BasePathFs); ok {
		if real, err := base.RealPath(pth); err == nil {
			return real
		}
	}
	return pth
}

func exists(fs afero.Fs, pth string) (bool, error) {
	_, err := fs.Stat(pth)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

func isDir(fs afero.Fs, pth string) (bool, error) {
	fi, err := fs.Stat(pth)
	switch {
	case err == nil:
		return fi.IsDir(), nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}
