package model

import (
	"path"
	"strings"

	"github.com/oneconcern/autodataman/pkg/core/status"
)

const (
	// descriptor files (object metadata)
	repoDescriptorFile     = "repo.json"
	datasetDescriptorFile  = "dataset.json"
	manifestDescriptorFile = "data.json"

	// LegacyExtension is the extension of descriptors served by legacy servers,
	// with the same JSON content
	LegacyExtension = ".txt"

	// StagingSuffix is appended to a version directory name while it is being overwritten
	StagingSuffix = ".part"
)

// RepoDescriptorPath is the key of the repository descriptor, relative to a repository root
func RepoDescriptorPath() string {
	return repoDescriptorFile
}

// DatasetDescriptorPath is the key of a dataset descriptor
func DatasetDescriptorPath(dataset string) string {
	return path.Join(dataset, datasetDescriptorFile)
}

// ManifestPath is the key of a version manifest
func ManifestPath(dataset, version string) string {
	return path.Join(dataset, version, manifestDescriptorFile)
}

// DataFilePath is the key of a data file within a version
func DataFilePath(dataset, version, filename string) string {
	return path.Join(dataset, version, filename)
}

// VersionDir is the key of a version directory
func VersionDir(dataset, version string) string {
	return path.Join(dataset, version)
}

// StagingDir is the key of the sibling directory used to stage an overwritten version
func StagingDir(dataset, version string) string {
	return path.Join(dataset, version+StagingSuffix)
}

// IsStagingDir tells if a directory name is a leftover staging directory
func IsStagingDir(name string) bool {
	return strings.HasSuffix(name, StagingSuffix)
}

// LegacyPath yields the alternate key for a descriptor key, using the legacy extension
func LegacyPath(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + LegacyExtension
}

// ParseDatasetSpec splits a "dataset[/version]" argument.
//
// The version is empty when not specified. More than one "/" is an error.
func ParseDatasetSpec(spec string) (dataset, version string, err error) {
	parts := strings.Split(spec, "/")
	switch len(parts) {
	case 1:
		dataset = parts[0]
	case 2:
		dataset, version = parts[0], parts[1]
	default:
		return "", "", status.ErrInvalidSpec.Wrapf("syntax error in dataset specification %q: expected <dataset>[/<version>]", spec)
	}
	if dataset == "" {
		return "", "", status.ErrInvalidSpec.Wrapf("empty dataset name in %q", spec)
	}
	if err = ValidateName(dataset); err != nil {
		return "", "", err
	}
	if version != "" {
		if err = ValidateVersionName(version); err != nil {
			return "", "", err
		}
	}
	return dataset, version, nil
}

// ValidateName checks that a dataset, version or file name is a single, non-empty path element
func ValidateName(name string) error {
	switch {
	case name == "":
		return status.ErrInvalidSpec.Wrapf("empty name")
	case name == "." || name == "..":
		return status.ErrInvalidSpec.Wrapf("invalid name %q", name)
	case strings.ContainsAny(name, `/\`):
		return status.ErrInvalidSpec.Wrapf("name %q must not contain path separators", name)
	case strings.ContainsRune(name, 0):
		return status.ErrInvalidSpec.Wrapf("name %q contains a NUL character", name)
	}
	return nil
}

// ValidateVersionName checks a version name: it must be a valid name, distinct from any staging directory
func ValidateVersionName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if IsStagingDir(name) {
		return status.ErrInvalidSpec.Wrapf("version name %q must not end with %q", name, StagingSuffix)
	}
	return nil
}

// IsReservedFilename tells if a file name is reserved for metadata within a version directory
func IsReservedFilename(name string) bool {
	return name == manifestDescriptorFile
}
