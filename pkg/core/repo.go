package core

import (
	"context"
	"fmt"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/metadata"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// InitRepo creates an empty local repository at some path, which must not exist yet.
//
// No partial repository is left behind on failure.
func InitRepo(ctx context.Context, pth string, opts ...Option) error {
	settings := defaultSettings(opts)
	found, err := exists(settings.fs, pth)
	if err != nil {
		return status.ErrIO.Wrap(err)
	}
	if found {
		return status.ErrInvalidLocalRepo.Wrapf("cannot create repository: %s already exists", pth)
	}

	if err = settings.fs.Mkdir(pth, 0755); err != nil {
		return status.ErrIO.Wrap(fmt.Errorf("cannot create repository: %w", err))
	}
	if err = settings.local(pth).SaveRepository(ctx, model.NewRepository()); err != nil {
		if e := settings.fs.RemoveAll(pth); e != nil {
			settings.l.Error("could not clean up repository", zap.String("path", pth), zap.Error(e))
		}
		return err
	}
	settings.l.Info("created repository", zap.String("path", pth))
	return nil
}

// CheckRepo asserts that some path holds a local repository
func CheckRepo(fs afero.Fs, pth string) error {
	found, err := isDir(fs, pth)
	if err != nil {
		return status.ErrIO.Wrap(err)
	}
	if !found {
		return status.ErrInvalidLocalRepo.Wrapf("%s does not exist or is not a directory", pth)
	}
	found, err = exists(fs, localPath(pth, model.RepoDescriptorPath()))
	if err != nil {
		return status.ErrIO.Wrap(err)
	}
	if !found {
		return status.ErrInvalidLocalRepo.Wrapf("%s does not contain %s", pth, model.RepoDescriptorPath())
	}
	return nil
}

func loadLocalRepo(ctx context.Context, local *metadata.Loader, root string) (*model.Repository, error) {
	repo, err := local.LoadRepository(ctx)
	if err != nil {
		return nil, status.ErrInvalidLocalRepo.Wrap(fmt.Errorf("%s: %w", root, err))
	}
	return repo, nil
}

// Avail lists the datasets available on a server
func Avail(ctx context.Context, server string, opts ...Option) (*model.Repository, error) {
	settings := defaultSettings(opts)
	remote, err := settings.remote(server)
	if err != nil {
		return nil, err
	}
	return remote.LoadRepository(ctx)
}

// DatasetListing lists the versions of a dataset in a local repository
type DatasetListing struct {
	Name     string   `yaml:"name"`
	Versions []string `yaml:"versions"`
}

// ListLocal lists the datasets and versions held by a local repository, in repository order
func ListLocal(ctx context.Context, root string, opts ...Option) ([]DatasetListing, error) {
	settings := defaultSettings(opts)
	local := settings.local(root)
	repo, err := loadLocalRepo(ctx, local, root)
	if err != nil {
		return nil, err
	}

	listing := make([]DatasetListing, 0, repo.NumDatasets())
	for _, name := range repo.Datasets {
		dataset, err := local.LoadDataset(ctx, name)
		if err != nil {
			return nil, err
		}
		listing = append(listing, DatasetListing{
			Name:     name,
			Versions: append([]string{}, dataset.Versions...),
		})
	}
	return listing, nil
}
