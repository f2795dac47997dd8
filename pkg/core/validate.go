package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/oneconcern/autodataman/pkg/metadata"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/oneconcern/autodataman/pkg/verify"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Severity of a validation finding
type Severity string

// Severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding reports an inconsistency in a local repository
type Finding struct {
	Severity Severity `yaml:"severity"`
	Path     string   `yaml:"path"`
	Message  string   `yaml:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Path, f.Message)
}

// ValidationReport lists the findings of a repository validation
type ValidationReport struct {
	Root     string    `yaml:"root"`
	Datasets int       `yaml:"datasets"`
	Versions int       `yaml:"versions"`
	Files    int       `yaml:"files"`
	Findings []Finding `yaml:"findings"`
}

// OK tells if no error was found
func (r *ValidationReport) OK() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *ValidationReport) add(severity Severity, pth, format string, args ...interface{}) {
	r.Findings = append(r.Findings, Finding{Severity: severity, Path: pth, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the consistency of a local repository without modifying it.
//
// Metadata is checked against the directory layout, and the digests of data files are
// verified unless skipDigests is set. Files declaring a post-download action may legitimately be
// absent, since the action removes the original file.
//
// An error is returned only when the repository descriptor cannot be loaded.
func Validate(ctx context.Context, root string, skipDigests bool, opts ...Option) (*ValidationReport, error) {
	settings := defaultSettings(opts)
	v := &validator{
		Settings:    settings,
		root:        root,
		skipDigests: skipDigests,
		report:      &ValidationReport{Root: root, Findings: []Finding{}},
	}
	v.local = settings.local(root)

	repo, err := loadLocalRepo(ctx, v.local, root)
	if err != nil {
		return nil, err
	}

	v.strays(root, repo.Datasets)
	for _, dataset := range repo.Datasets {
		v.report.Datasets++
		v.dataset(ctx, dataset)
	}
	settings.l.Info("validated repository",
		zap.String("root", root),
		zap.Int("findings", len(v.report.Findings)),
	)
	return v.report, nil
}

type validator struct {
	*Settings
	root        string
	skipDigests bool
	local       *metadata.Loader
	report      *ValidationReport
}

func (v *validator) dataset(ctx context.Context, dataset string) {
	dir := localPath(v.root, dataset)
	if ok, _ := isDir(v.fs, dir); !ok {
		v.report.add(SeverityError, dir, "dataset is listed in the repository, but its directory is missing")
		return
	}
	descriptor, err := v.local.LoadDataset(ctx, dataset)
	if err != nil {
		v.report.add(SeverityError, localPath(v.root, model.DatasetDescriptorPath(dataset)), "%v", err)
		return
	}
	if descriptor.ShortName != dataset {
		v.report.add(SeverityWarning, localPath(v.root, model.DatasetDescriptorPath(dataset)),
			"short name %q does not match the dataset name", descriptor.ShortName)
	}

	v.strays(dir, descriptor.Versions)
	for _, version := range descriptor.Versions {
		v.report.Versions++
		v.version(ctx, dataset, version)
	}
}

func (v *validator) version(ctx context.Context, dataset, version string) {
	dir := localPath(v.root, model.VersionDir(dataset, version))
	if ok, _ := isDir(v.fs, dir); !ok {
		v.report.add(SeverityError, dir, "version is listed in the dataset, but its directory is missing")
		return
	}
	manifest, err := v.local.LoadManifest(ctx, dataset, version)
	if err != nil {
		v.report.add(SeverityError, localPath(v.root, model.ManifestPath(dataset, version)), "%v", err)
		return
	}
	if manifest.Version != version {
		v.report.add(SeverityWarning, localPath(v.root, model.ManifestPath(dataset, version)),
			"manifest declares version %q", manifest.Version)
	}

	for _, file := range manifest.Files {
		v.report.Files++
		pth := localPath(v.root, model.DataFilePath(dataset, version, file.Filename))
		found, err := exists(v.fs, pth)
		if err != nil {
			v.report.add(SeverityError, pth, "%v", err)
			continue
		}
		if !found {
			if file.OnDownload == "" {
				v.report.add(SeverityError, pth, "file is missing")
			}
			continue
		}
		if v.skipDigests {
			continue
		}
		digest, err := verify.Digest(v.fs, pth)
		if err != nil {
			v.report.add(SeverityError, pth, "%v", err)
			continue
		}
		if !verify.Match(digest, file.Digest) {
			v.report.add(SeverityError, pth, "digest mismatch: expected %s, got %s", file.Digest, digest)
		}
	}
}

// strays reports directories not listed in the metadata, and leftover staging directories
func (v *validator) strays(dir string, listed []string) {
	entries, err := afero.ReadDir(v.fs, dir)
	if err != nil {
		v.report.add(SeverityError, dir, "%v", err)
		return
	}
	known := make(map[string]struct{}, len(listed))
	for _, name := range listed {
		known[name] = struct{}{}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		if model.IsStagingDir(name) {
			v.report.add(SeverityWarning, localPath(dir, name), "leftover staging directory from an interrupted download")
			continue
		}
		v.report.add(SeverityError, localPath(dir, name), "directory is not listed in the metadata")
	}
}
