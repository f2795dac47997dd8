package core

import (
	"context"
	"fmt"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/model"
	"go.uber.org/zap"
)

// RemoveResult reports what was removed from a local repository
type RemoveResult struct {
	Dataset string
	// Version is empty when the whole dataset was removed
	Version string
	// Versions held by a removed dataset
	Versions []string
}

// Remove a dataset, or a single version of a dataset, from a local repository.
//
// The spec is "dataset" or "dataset/version". Without a version, a dataset holding at most one
// version is removed altogether. A dataset holding more versions is only removed when removeAll is set.
func Remove(ctx context.Context, root, spec string, removeAll bool, opts ...Option) (*RemoveResult, error) {
	dataset, version, err := model.ParseDatasetSpec(spec)
	if err != nil {
		return nil, err
	}
	settings := defaultSettings(opts)
	local := settings.local(root)
	l := settings.l.With(zap.String("dataset", dataset))

	repo, err := loadLocalRepo(ctx, local, root)
	if err != nil {
		return nil, err
	}

	dir := localPath(root, dataset)
	dirFound, err := isDir(settings.fs, dir)
	if err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	if !repo.HasDataset(dataset) {
		if dirFound {
			return nil, status.ErrCorruptLocalRepo.Wrapf(
				"dataset %q is not listed in the local repository, but directory %s exists. %s", dataset, dir, status.RepairHint,
			)
		}
		return nil, status.ErrDatasetNotFound.Wrapf("dataset %q is not in the local repository %s", dataset, root)
	}
	if !dirFound {
		return nil, status.ErrCorruptLocalRepo.Wrapf(
			"dataset %q is listed in the local repository, but directory %s is missing. %s", dataset, dir, status.RepairHint,
		)
	}

	descriptor, err := local.LoadDataset(ctx, dataset)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return nil, status.ErrCorruptLocalRepo.Wrapf("%v. %s", err, status.RepairHint)
		}
		return nil, err
	}

	if version == "" {
		if descriptor.NumVersions() > 1 && !removeAll {
			return nil, status.ErrAmbiguousRemoval.Wrapf(
				"dataset %q holds %d versions: specify a version, or confirm the removal of all versions",
				dataset, descriptor.NumVersions(),
			)
		}
		if err = settings.fs.RemoveAll(dir); err != nil {
			return nil, status.ErrIO.Wrap(fmt.Errorf("removing dataset %q: %w", dataset, err))
		}
		repo.RemoveDataset(dataset)
		if err = local.SaveRepository(ctx, repo); err != nil {
			return nil, commitError(err)
		}
		l.Info("removed dataset", zap.Strings("versions", descriptor.Versions))
		return &RemoveResult{Dataset: dataset, Versions: descriptor.Versions}, nil
	}

	versionDir := localPath(root, model.VersionDir(dataset, version))
	versionFound, err := isDir(settings.fs, versionDir)
	if err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	if !descriptor.HasVersion(version) {
		if versionFound {
			return nil, status.ErrCorruptLocalRepo.Wrapf(
				"version %q is not listed in dataset %q, but directory %s exists. %s", version, dataset, versionDir, status.RepairHint,
			)
		}
		return nil, status.ErrVersionNotFound.Wrapf("version %q of dataset %q is not in the local repository %s", version, dataset, root)
	}
	if !versionFound {
		return nil, status.ErrCorruptLocalRepo.Wrapf(
			"version %q is listed in dataset %q, but directory %s is missing. %s", version, dataset, versionDir, status.RepairHint,
		)
	}

	if err = settings.fs.RemoveAll(versionDir); err != nil {
		return nil, status.ErrIO.Wrap(fmt.Errorf("removing version %q of dataset %q: %w", version, dataset, err))
	}
	// the default version is left untouched
	descriptor.RemoveVersion(version)
	if err = local.SaveDataset(ctx, dataset, descriptor); err != nil {
		return nil, commitError(err)
	}
	l.Info("removed version", zap.String("version", version))
	return &RemoveResult{Dataset: dataset, Version: version}, nil
}
