package core

import (
	"context"
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/metadata"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/oneconcern/autodataman/pkg/verify"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Outcome of a fetch
type Outcome int

const (
	// Fetched means that a new version was downloaded and committed
	Fetched Outcome = iota
	// NeedsVersion means that no version was requested and the dataset has no default: nothing was done
	NeedsVersion
	// UpToDate means that the local version already matches the server: nothing was done
	UpToDate
	// Drifted means that the local version differs from the server and no overwrite was requested: nothing was done
	Drifted
	// Overwritten means that an existing local version was replaced by the server copy
	Overwritten
)

func (o Outcome) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case NeedsVersion:
		return "needs version"
	case UpToDate:
		return "up to date"
	case Drifted:
		return "drifted"
	case Overwritten:
		return "overwritten"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FetchRequest describes a version to synchronize from a server into a local repository
type FetchRequest struct {
	Server    string
	LocalRepo string
	Dataset   string
	// Version may be empty: the default version of the dataset on the server is used then
	Version string
	// Force overwrites a local version that is up to date or has drifted
	Force bool
}

// FetchResult reports what a fetch did
type FetchResult struct {
	ID      ksuid.KSUID
	Outcome Outcome
	Dataset string
	Version string

	// Available versions on the server, when Outcome is NeedsVersion
	Available []string

	// Summaries of the manifests, when the local version has drifted
	LocalSummary  string
	RemoteSummary string

	Files int
	Bytes int64
}

// Fetch synchronizes a dataset version from a server into a local repository.
//
// The version is downloaded in a staging directory and every file is verified against the
// digest declared by its manifest. The local repository is only updated once all files are
// verified: any failure before that point removes whatever was created by this fetch.
//
// The local repository is assumed to have a single writer.
func Fetch(ctx context.Context, req FetchRequest, opts ...Option) (*FetchResult, error) {
	settings := defaultSettings(opts)
	id := ksuid.New()
	f := &fetcher{
		Settings: settings,
		req:      req,
		result:   &FetchResult{ID: id, Dataset: req.Dataset, Version: req.Version},
		l: settings.l.With(
			zap.Stringer("fetch", id),
			zap.String("dataset", req.Dataset),
		),
	}
	if err := model.ValidateName(req.Dataset); err != nil {
		return nil, err
	}
	if req.Version != "" {
		if err := model.ValidateVersionName(req.Version); err != nil {
			return nil, err
		}
	}

	remote, err := settings.remote(req.Server)
	if err != nil {
		return nil, err
	}
	f.remote = remote
	f.local = settings.local(req.LocalRepo)

	if err := f.run(ctx); err != nil {
		return nil, err
	}
	return f.result, nil
}

type fetcher struct {
	*Settings
	req    FetchRequest
	result *FetchResult
	remote *metadata.Loader
	local  *metadata.Loader
	l      *zap.Logger

	remoteManifest *model.Manifest
	localRepo      *model.Repository
	localDataset   *model.Dataset
	newDataset     bool
	overwrite      bool

	// the directory created by this fetch, removed on failure
	created string
}

func (f *fetcher) run(ctx context.Context) error {
	proceed, err := f.resolve(ctx)
	if err != nil || !proceed {
		return err
	}
	proceed, err = f.inspectLocal(ctx)
	if err != nil || !proceed {
		return err
	}

	if err = f.stage(ctx); err != nil {
		f.rollback()
		return err
	}
	return f.commit(ctx)
}

// resolve loads the remote side of the fetch: repository, dataset and manifest
func (f *fetcher) resolve(ctx context.Context) (bool, error) {
	repo, err := f.remote.LoadRepository(ctx)
	if err != nil {
		return false, err
	}
	if !repo.HasDataset(f.req.Dataset) {
		return false, status.ErrDatasetNotFound.Wrapf("dataset %q is not available on %s", f.req.Dataset, f.req.Server)
	}

	dataset, err := f.remote.LoadDataset(ctx, f.req.Dataset)
	if err != nil {
		return false, err
	}

	version := f.req.Version
	if version == "" {
		version = dataset.DefaultVersion
		if version == "" {
			f.l.Info("no version requested and no default version for dataset")
			f.result.Outcome = NeedsVersion
			f.result.Available = append([]string{}, dataset.Versions...)
			return false, nil
		}
		if err = model.ValidateVersionName(version); err != nil {
			return false, status.ErrMalformedMetadata.Wrapf("default version of dataset %q: %v", f.req.Dataset, err)
		}
		f.l.Info("using default version", zap.String("version", version))
	}
	f.req.Version = version
	f.result.Version = version
	f.l = f.l.With(zap.String("version", version))

	if !dataset.HasVersion(version) {
		return false, status.ErrVersionNotFound.Wrapf("version %q of dataset %q is not available on %s", version, f.req.Dataset, f.req.Server)
	}

	manifest, err := f.remote.LoadManifest(ctx, f.req.Dataset, version)
	if err != nil {
		return false, err
	}
	seen := make(map[string]struct{}, len(manifest.Files))
	for _, file := range manifest.Files {
		if err = model.ValidateName(file.Filename); err != nil {
			return false, status.ErrMalformedMetadata.Wrapf("file in manifest of %s/%s: %v", f.req.Dataset, version, err)
		}
		if model.IsReservedFilename(file.Filename) {
			return false, status.ErrMalformedMetadata.Wrapf("file in manifest of %s/%s: %q is a reserved name", f.req.Dataset, version, file.Filename)
		}
		if _, duplicate := seen[file.Filename]; duplicate {
			return false, status.ErrMalformedMetadata.Wrapf("file in manifest of %s/%s: %q is listed more than once", f.req.Dataset, version, file.Filename)
		}
		seen[file.Filename] = struct{}{}
	}
	f.remoteManifest = manifest

	if f.localRepo, err = f.local.LoadRepository(ctx); err != nil {
		return false, status.ErrInvalidLocalRepo.Wrap(fmt.Errorf("%s: %w", f.req.LocalRepo, err))
	}

	if f.localDataset, err = f.datasetState(ctx, dataset); err != nil {
		return false, err
	}
	return true, nil
}

// datasetState yields the local descriptor of the dataset, which is derived from the remote one for a new dataset
func (f *fetcher) datasetState(ctx context.Context, remote *model.Dataset) (*model.Dataset, error) {
	dir := localPath(f.req.LocalRepo, f.req.Dataset)

	if !f.localRepo.HasDataset(f.req.Dataset) {
		found, err := exists(f.fs, dir)
		if err != nil {
			return nil, status.ErrIO.Wrap(err)
		}
		if found {
			return nil, status.ErrCorruptLocalRepo.Wrapf(
				"dataset %q is not listed in the local repository, but directory %s exists. %s",
				f.req.Dataset, dir, status.RepairHint,
			)
		}
		f.newDataset = true
		return model.NewDatasetFrom(remote), nil
	}

	found, err := isDir(f.fs, dir)
	if err != nil {
		return nil, status.ErrIO.Wrap(err)
	}
	if !found {
		return nil, status.ErrCorruptLocalRepo.Wrapf(
			"dataset %q is listed in the local repository, but directory %s is missing. %s",
			f.req.Dataset, dir, status.RepairHint,
		)
	}
	local, err := f.local.LoadDataset(ctx, f.req.Dataset)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return nil, status.ErrCorruptLocalRepo.Wrapf("%v. %s", err, status.RepairHint)
		}
		return nil, err
	}
	return local, nil
}

// inspectLocal determines the state of the version in the local repository
func (f *fetcher) inspectLocal(ctx context.Context) (bool, error) {
	version := f.req.Version
	dir := localPath(f.req.LocalRepo, model.VersionDir(f.req.Dataset, version))

	if !f.localDataset.HasVersion(version) {
		found, err := exists(f.fs, dir)
		if err != nil {
			return false, status.ErrIO.Wrap(err)
		}
		if found {
			return false, status.ErrCorruptLocalRepo.Wrapf(
				"version %q is not listed in the local dataset, but directory %s exists. %s",
				version, dir, status.RepairHint,
			)
		}
		return true, nil
	}

	local, err := f.local.LoadManifest(ctx, f.req.Dataset, version)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return false, status.ErrCorruptLocalRepo.Wrapf("%v. %s", err, status.RepairHint)
		}
		return false, err
	}

	if local.Equal(f.remoteManifest) {
		if !f.req.Force {
			f.l.Info("local version is up to date")
			f.result.Outcome = UpToDate
			return false, nil
		}
		f.l.Info("local version is up to date, forcing overwrite")
	} else {
		f.result.LocalSummary = local.Summary()
		f.result.RemoteSummary = f.remoteManifest.Summary()
		if !f.req.Force {
			f.l.Warn("local version differs from the server copy")
			f.result.Outcome = Drifted
			return false, nil
		}
		f.l.Warn("local version differs from the server copy, overwriting")
	}
	f.overwrite = true
	return true, nil
}

func (f *fetcher) stagingVersion() string {
	if f.overwrite {
		return f.req.Version + model.StagingSuffix
	}
	return f.req.Version
}

// stage downloads and verifies all files of the version, then applies post-download actions
func (f *fetcher) stage(ctx context.Context) error {
	if f.newDataset {
		dir := localPath(f.req.LocalRepo, f.req.Dataset)
		if err := f.fs.Mkdir(dir, 0755); err != nil {
			return status.ErrIO.Wrap(err)
		}
		f.created = dir
	}

	staging := f.stagingVersion()
	dir := localPath(f.req.LocalRepo, model.VersionDir(f.req.Dataset, staging))
	if f.overwrite {
		if f.localDataset.HasVersion(staging) {
			return status.ErrCorruptLocalRepo.Wrapf(
				"version %q is listed in the local dataset, but %s is the staging directory of version %q. %s",
				staging, dir, f.req.Version, status.RepairHint,
			)
		}
		// a leftover staging directory is never live content
		found, err := exists(f.fs, dir)
		if err != nil {
			return status.ErrIO.Wrap(err)
		}
		if found {
			f.l.Warn("removing stale staging directory", zap.String("path", dir))
			if err = f.fs.RemoveAll(dir); err != nil {
				return status.ErrIO.Wrap(err)
			}
		}
	}
	if err := f.fs.Mkdir(dir, 0755); err != nil {
		return status.ErrIO.Wrap(err)
	}
	if f.created == "" {
		f.created = dir
	}

	if err := f.local.SaveManifest(ctx, f.req.Dataset, staging, f.remoteManifest); err != nil {
		return err
	}

	total := len(f.remoteManifest.Files)
	for i, file := range f.remoteManifest.Files {
		written, err := f.download(ctx, staging, file)
		if err != nil {
			return err
		}
		f.result.Files++
		f.result.Bytes += written
		if f.progress != nil {
			f.progress(FileProgress{Index: i + 1, Total: total, Filename: file.Filename, Bytes: written})
		}
	}
	f.l.Info("all files downloaded and verified",
		zap.Int("files", total),
		zap.String("size", units.HumanSize(float64(f.result.Bytes))),
	)

	return f.transform(ctx, staging, f.remoteManifest.Files)
}

// download streams a file into the staging directory and verifies its digest
func (f *fetcher) download(ctx context.Context, staging string, file model.File) (int64, error) {
	key := model.DataFilePath(f.req.Dataset, f.req.Version, file.Filename)
	target := localPath(f.req.LocalRepo, model.DataFilePath(f.req.Dataset, staging, file.Filename))
	f.l.Debug("downloading file", zap.String("url", f.remote.Location(key)))

	reader, err := f.remote.Store().Get(ctx, key)
	if err != nil {
		return 0, status.ErrRemoteFetch.Wrap(err)
	}
	defer reader.Close()

	written, digest, err := writeVerified(f.fs, target, reader)
	if err != nil {
		return 0, err
	}

	if !verify.Match(digest, file.Digest) {
		return 0, status.ErrChecksumMismatch.Wrapf(
			"%s: expected %s, got %s. If the local repository is inconsistent, remove %s/%s before downloading again",
			f.remote.Location(key), file.Digest, digest, f.req.Dataset, f.req.Version,
		)
	}
	f.l.Info("downloaded file",
		zap.String("file", file.Filename),
		zap.String("size", units.HumanSize(float64(written))),
	)
	return written, nil
}

// writeVerified copies a stream into a new file, hashing it on the fly
func writeVerified(fs afero.Fs, target string, reader io.Reader) (int64, string, error) {
	file, err := fs.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, "", status.ErrIO.Wrap(err)
	}
	hw := verify.NewHashingWriter(file)
	buf := make([]byte, verify.ChunkSize)
	if _, err = io.CopyBuffer(hw, reader, buf); err != nil {
		_ = file.Close()
		return 0, "", status.ErrRemoteFetch.Wrap(fmt.Errorf("downloading %s: %w", target, err))
	}
	if err = file.Close(); err != nil {
		return 0, "", status.ErrIO.Wrap(err)
	}
	return hw.Written(), hw.Digest(), nil
}

// rollback removes whatever directory this fetch has created
func (f *fetcher) rollback() {
	if f.created == "" {
		return
	}
	f.l.Warn("fetch failed, cleaning up", zap.String("path", f.created))
	if err := f.fs.RemoveAll(f.created); err != nil {
		f.l.Error("could not clean up after failed fetch", zap.String("path", f.created), zap.Error(err))
	}
}

// commit promotes the staging directory then updates the local metadata
func (f *fetcher) commit(ctx context.Context) error {
	version := f.req.Version

	if f.overwrite {
		live := localPath(f.req.LocalRepo, model.VersionDir(f.req.Dataset, version))
		staging := localPath(f.req.LocalRepo, model.VersionDir(f.req.Dataset, f.stagingVersion()))
		if err := f.fs.RemoveAll(live); err != nil {
			return commitError(err)
		}
		if err := f.fs.Rename(staging, live); err != nil {
			return commitError(err)
		}
		f.result.Outcome = Overwritten
	} else {
		f.result.Outcome = Fetched
	}

	if !f.localDataset.HasVersion(version) {
		f.localDataset.AddVersion(version)
	}
	if err := f.local.SaveDataset(ctx, f.req.Dataset, f.localDataset); err != nil {
		return commitError(err)
	}

	if f.newDataset {
		f.localRepo.AddDataset(f.req.Dataset)
		if err := f.local.SaveRepository(ctx, f.localRepo); err != nil {
			return commitError(err)
		}
	}

	f.l.Info("version committed", zap.Stringer("outcome", f.result.Outcome))
	return nil
}

func commitError(err error) error {
	return status.ErrCommitFailed.Wrap(fmt.Errorf("%w. %s", err, status.RepairHint))
}

