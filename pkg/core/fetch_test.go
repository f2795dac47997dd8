package core

import (
	"context"
	"strings"
	"testing"

	"github.com/oneconcern/autodataman/internal/fixtures"
	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/oneconcern/autodataman/pkg/verify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t2m  = fixtures.File{Name: "t2m.nc", Format: "netCDF", Content: []byte("2m temperature, version 1")}
	z500 = fixtures.File{Name: "z500.nc", Format: "netCDF", Content: []byte("500 hPa geopotential")}
)

func TestFetchNewDataset(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m, z500)))

	var progress []FileProgress
	result, err := env.fetch("ds", "v1", false, WithProgress(func(p FileProgress) {
		progress = append(progress, p)
	}))
	require.NoError(t, err)
	assert.Equal(t, Fetched, result.Outcome)
	assert.Equal(t, "v1", result.Version)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, int64(len(t2m.Content)+len(z500.Content)), result.Bytes)
	assert.False(t, result.ID.IsNil())

	require.Len(t, progress, 2)
	assert.Equal(t, FileProgress{Index: 1, Total: 2, Filename: "t2m.nc", Bytes: int64(len(t2m.Content))}, progress[0])
	assert.Equal(t, "z500.nc", progress[1].Filename)

	assert.Equal(t, []string{"ds"}, env.localRepo(t).Datasets)
	local := env.localDataset(t, "ds")
	assert.Equal(t, []string{"v1"}, local.Versions)
	assert.Equal(t, "dataset ds", local.LongName)

	for _, file := range []fixtures.File{t2m, z500} {
		pth := localPath(localRoot, model.DataFilePath("ds", "v1", file.Name))
		ok, err := verify.Verify(env.fs, pth, fixtures.Digest(file.Content))
		require.NoError(t, err)
		assert.True(t, ok, file.Name)
	}

	// the manifest is stored along with the data
	manifest, err := defaultSettings([]Option{WithFs(env.fs)}).local(localRoot).LoadManifest(context.Background(), "ds", "v1")
	require.NoError(t, err)
	assert.True(t, manifest.Equal(versionFixture("v1", t2m, z500).Manifest()))
}

func TestFetchUpToDate(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))

	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	downloads := env.downloaded()
	before := env.snapshot(t)

	result, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	assert.Equal(t, UpToDate, result.Outcome)
	assert.Equal(t, downloads, env.downloaded(), "no file should be downloaded again")
	assert.Equal(t, before, env.snapshot(t))

	// forcing the fetch downloads the version again
	result, err = env.fetch("ds", "v1", true)
	require.NoError(t, err)
	assert.Equal(t, Overwritten, result.Outcome)
	assert.Equal(t, downloads+1, env.downloaded())
	assert.Equal(t, before, env.snapshot(t))
}

func TestFetchChecksumMismatch(t *testing.T) {
	corrupted := t2m
	corrupted.Digest = fixtures.Digest([]byte("something else"))

	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", z500, corrupted)))
	before := env.snapshot(t)

	_, err := env.fetch("ds", "v1", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrChecksumMismatch))
	assert.Contains(t, err.Error(), corrupted.Digest)

	// the new dataset is removed altogether
	assert.Equal(t, before, env.snapshot(t))
	found, err := afero.Exists(env.fs, localPath(localRoot, "ds"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchChecksumMismatchNewVersion(t *testing.T) {
	corrupted := z500
	corrupted.Digest = fixtures.Digest([]byte("something else"))

	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	before := env.snapshot(t)

	env.publish(t, datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", corrupted)))
	_, err = env.fetch("ds", "v2", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrChecksumMismatch))

	// the partial version is removed, the existing dataset is untouched
	assert.Equal(t, before, env.snapshot(t))
}

func TestFetchChecksumMismatchOverwrite(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	before := env.snapshot(t)

	corrupted := z500
	corrupted.Digest = fixtures.Digest([]byte("something else"))
	env.publish(t, datasetFixture("ds", versionFixture("v1", t2m, corrupted)))

	_, err = env.fetch("ds", "v1", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrChecksumMismatch))

	// the live version is left intact and the staging directory is removed
	assert.Equal(t, before, env.snapshot(t))
	found, err := afero.Exists(env.fs, localPath(localRoot, model.StagingDir("ds", "v1")))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchDrifted(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	before := env.snapshot(t)

	updated := t2m
	updated.Content = []byte("2m temperature, reprocessed")
	env.publish(t, datasetFixture("ds", versionFixture("v1", updated)))

	result, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)
	assert.Equal(t, Drifted, result.Outcome)
	assert.Contains(t, result.LocalSummary, fixtures.Digest(t2m.Content))
	assert.Contains(t, result.RemoteSummary, fixtures.Digest(updated.Content))
	assert.Equal(t, before, env.snapshot(t))

	result, err = env.fetch("ds", "v1", true)
	require.NoError(t, err)
	assert.Equal(t, Overwritten, result.Outcome)
	assert.Equal(t, updated.Content, env.localFile(t, "ds", "v1", "t2m.nc"))
	assert.Equal(t, []string{"v1"}, env.localDataset(t, "ds").Versions)

	found, err := afero.Exists(env.fs, localPath(localRoot, model.StagingDir("ds", "v1")))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchStaleStaging(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)

	stale := localPath(localRoot, model.StagingDir("ds", "v1"))
	require.NoError(t, env.fs.MkdirAll(stale, 0755))
	require.NoError(t, afero.WriteFile(env.fs, stale+"/leftover", []byte("x"), 0644))

	result, err := env.fetch("ds", "v1", true)
	require.NoError(t, err)
	assert.Equal(t, Overwritten, result.Outcome)

	found, err := afero.Exists(env.fs, localPath(localRoot, model.DataFilePath("ds", "v1", "leftover")))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchSecondVersion(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", z500)))

	_, err := env.fetch("ds", "v2", false)
	require.NoError(t, err)
	_, err = env.fetch("ds", "v1", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"ds"}, env.localRepo(t).Datasets)
	assert.Equal(t, []string{"v2", "v1"}, env.localDataset(t, "ds").Versions)
	assert.Equal(t, z500.Content, env.localFile(t, "ds", "v2", "z500.nc"))
	assert.Equal(t, t2m.Content, env.localFile(t, "ds", "v1", "t2m.nc"))
}

func TestFetchDefaultVersion(t *testing.T) {
	dataset := datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", z500))
	dataset.DefaultVersion = "v2"
	env := setupEnv(t, dataset)

	result, err := env.fetch("ds", "", false)
	require.NoError(t, err)
	assert.Equal(t, Fetched, result.Outcome)
	assert.Equal(t, "v2", result.Version)
	assert.Equal(t, []string{"v2"}, env.localDataset(t, "ds").Versions)
}

func TestFetchNeedsVersion(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", z500)))
	before := env.snapshot(t)

	result, err := env.fetch("ds", "", false)
	require.NoError(t, err)
	assert.Equal(t, NeedsVersion, result.Outcome)
	assert.Equal(t, []string{"v1", "v2"}, result.Available)
	assert.Equal(t, int64(0), env.downloaded())
	assert.Equal(t, before, env.snapshot(t))
}

func TestFetchErrors(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	before := env.snapshot(t)

	_, err := env.fetch("unknown", "v1", false)
	assert.True(t, errors.Is(err, status.ErrDatasetNotFound))

	_, err = env.fetch("ds", "v9", false)
	assert.True(t, errors.Is(err, status.ErrVersionNotFound))

	_, err = env.fetch("ds/v1", "", false)
	assert.True(t, errors.Is(err, status.ErrInvalidSpec))

	_, err = env.fetch("ds", "..", false)
	assert.True(t, errors.Is(err, status.ErrInvalidSpec))

	assert.Equal(t, before, env.snapshot(t))

	_, err = Fetch(context.Background(), FetchRequest{
		Server:    env.server.URL,
		LocalRepo: "/nowhere",
		Dataset:   "ds",
		Version:   "v1",
	}, WithFs(env.fs))
	assert.True(t, errors.Is(err, status.ErrInvalidLocalRepo))

	_, err = Fetch(context.Background(), FetchRequest{
		Server:    env.server.URL + "/missing",
		LocalRepo: localRoot,
		Dataset:   "ds",
		Version:   "v1",
	}, WithFs(env.fs))
	assert.True(t, errors.Is(err, status.ErrRemoteFetch))

	_, err = Fetch(context.Background(), FetchRequest{
		Server:    "ftp://example.com",
		LocalRepo: localRoot,
		Dataset:   "ds",
	}, WithFs(env.fs))
	assert.True(t, errors.Is(err, status.ErrRemoteFetch))
}

func TestFetchUnsafeFilename(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	manifest := versionFixture("v1", t2m).Manifest()
	manifest.Files[0].Filename = "../escape"
	require.NoError(t, afero.WriteFile(env.remoteFs, serverRoot+"/"+model.ManifestPath("ds", "v1"), manifest.Encode(), 0644))
	before := env.snapshot(t)

	_, err := env.fetch("ds", "v1", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrMalformedMetadata))
	assert.Equal(t, before, env.snapshot(t))
}

func TestFetchManifestFilenames(t *testing.T) {
	for _, toPin := range []struct {
		name   string
		mutate func(*model.Manifest)
	}{
		{
			name: "reserved name",
			mutate: func(m *model.Manifest) {
				m.Files[0].Filename = "data.json"
			},
		},
		{
			name: "duplicate name",
			mutate: func(m *model.Manifest) {
				m.Files = append(m.Files, m.Files[0])
			},
		},
	} {
		testCase := toPin
		t.Run(testCase.name, func(t *testing.T) {
			env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m, z500)))
			manifest := versionFixture("v1", t2m, z500).Manifest()
			testCase.mutate(manifest)
			require.NoError(t, afero.WriteFile(env.remoteFs, serverRoot+"/"+model.ManifestPath("ds", "v1"), manifest.Encode(), 0644))
			before := env.snapshot(t)

			_, err := env.fetch("ds", "v1", false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrMalformedMetadata))
			assert.Equal(t, int64(0), env.downloaded())
			assert.Equal(t, before, env.snapshot(t))
		})
	}
}

func TestFetchStagingVersionName(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))

	_, err := env.fetch("ds", "v1.part", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidSpec))

	// a local repository listing a version named like the staging directory of another one
	_, err = env.fetch("ds", "v1", false)
	require.NoError(t, err)
	staging := localPath(localRoot, model.StagingDir("ds", "v1"))
	require.NoError(t, env.fs.MkdirAll(staging, 0755))
	require.NoError(t, afero.WriteFile(env.fs, staging+"/t2m.nc", []byte("committed"), 0644))
	dataset := env.localDataset(t, "ds")
	dataset.AddVersion("v1.part")
	require.NoError(t, defaultSettings([]Option{WithFs(env.fs)}).local(localRoot).SaveDataset(context.Background(), "ds", dataset))
	before := env.snapshot(t)

	_, err = env.fetch("ds", "v1", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCorruptLocalRepo))
	assert.Contains(t, err.Error(), status.RepairHint)
	assert.Equal(t, before, env.snapshot(t))
	assert.Equal(t, []string{"v1", "v1.part"}, env.localDataset(t, "ds").Versions)
}

func TestFetchCorruptLocalRepo(t *testing.T) {
	t.Run("unlisted dataset directory", func(t *testing.T) {
		env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
		require.NoError(t, env.fs.MkdirAll(localPath(localRoot, "ds"), 0755))
		before := env.snapshot(t)

		_, err := env.fetch("ds", "v1", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrCorruptLocalRepo))
		assert.Contains(t, err.Error(), status.RepairHint)
		assert.Equal(t, before, env.snapshot(t))
	})

	t.Run("missing dataset directory", func(t *testing.T) {
		env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
		_, err := env.fetch("ds", "v1", false)
		require.NoError(t, err)
		require.NoError(t, env.fs.RemoveAll(localPath(localRoot, "ds")))

		_, err = env.fetch("ds", "v1", false)
		assert.True(t, errors.Is(err, status.ErrCorruptLocalRepo))
	})

	t.Run("unlisted version directory", func(t *testing.T) {
		env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", z500)))
		_, err := env.fetch("ds", "v1", false)
		require.NoError(t, err)
		require.NoError(t, env.fs.MkdirAll(localPath(localRoot, model.VersionDir("ds", "v2")), 0755))
		before := env.snapshot(t)

		_, err = env.fetch("ds", "v2", false)
		assert.True(t, errors.Is(err, status.ErrCorruptLocalRepo))
		assert.Equal(t, before, env.snapshot(t))
	})

	t.Run("missing manifest", func(t *testing.T) {
		env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
		_, err := env.fetch("ds", "v1", false)
		require.NoError(t, err)
		require.NoError(t, env.fs.Remove(localPath(localRoot, model.ManifestPath("ds", "v1"))))

		_, err = env.fetch("ds", "v1", false)
		assert.True(t, errors.Is(err, status.ErrCorruptLocalRepo))
	})
}

func TestFetchCommitFailure(t *testing.T) {
	env := setupEnv(t, datasetFixture("ds", versionFixture("v1", t2m)))
	_, err := env.fetch("ds", "v1", false)
	require.NoError(t, err)

	env.publish(t, datasetFixture("ds", versionFixture("v1", t2m), versionFixture("v2", z500)))

	// the data is committed on a read-write file system, while metadata updates fail
	ro := &failingDescriptorFs{Fs: env.fs, failing: model.DatasetDescriptorPath("ds")}
	_, err = env.fetch("ds", "v2", false, WithFs(ro))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCommitFailed))
	assert.Contains(t, err.Error(), "DANGER")

	// no rollback after a failed commit
	assert.Equal(t, z500.Content, env.localFile(t, "ds", "v2", "z500.nc"))
	assert.Equal(t, []string{"v1"}, env.localDataset(t, "ds").Versions)
}

func TestOutcomeString(t *testing.T) {
	for outcome, expected := range map[Outcome]string{
		Fetched:      "fetched",
		NeedsVersion: "needs version",
		UpToDate:     "up to date",
		Drifted:      "drifted",
		Overwritten:  "overwritten",
		Outcome(42):  "outcome(42)",
	} {
		assert.Equal(t, expected, outcome.String())
	}
}

// failingDescriptorFs fails to rename anything onto some descriptor
type failingDescriptorFs struct {
	afero.Fs
	failing string
}

func (f *failingDescriptorFs) Rename(oldname, newname string) error {
	if strings.HasSuffix(newname, f.failing) {
		return afero.ErrFileClosed
	}
	return f.Fs.Rename(oldname, newname)
}
