// Package status exports errors produced by the core package.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between the model, metadata and core packages.
package status

import (
	"github.com/oneconcern/autodataman/pkg/errors"
)

var (
	// ErrMalformedMetadata indicates a structural violation in a metadata document: missing or mistyped required key
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrNotFound indicates an object was not found
	ErrNotFound = errors.New("not found")

	// ErrDatasetNotFound indicates that a dataset is not listed in the repository metadata
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrVersionNotFound indicates that a version is not listed in the dataset metadata
	ErrVersionNotFound = errors.New("version not found")

	// ErrRemoteFetch indicates a transport or status failure while talking to the server
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrChecksumMismatch indicates that downloaded content fails verification
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrCorruptLocalRepo indicates a disagreement between the local metadata and the filesystem
	ErrCorruptLocalRepo = errors.New("damaged local repo")

	// ErrAmbiguousRemoval indicates that a destructive operation needs an explicit confirmation flag
	ErrAmbiguousRemoval = errors.New("ambiguous removal")

	// ErrIO indicates a local read or write failure
	ErrIO = errors.New("local i/o error")

	// ErrInvalidLocalRepo indicates that the local repository root does not exist or is not a repository
	ErrInvalidLocalRepo = errors.New("invalid local repo")

	// ErrInvalidSpec indicates an invalid dataset specifier or name
	ErrInvalidSpec = errors.New("invalid dataset specifier")

	// ErrTransformFailed indicates that a post-download command failed
	ErrTransformFailed = errors.New("post-download command failed")

	// ErrCommitFailed indicates that the final commit of an operation failed and the repository may need a repair
	ErrCommitFailed = errors.New("DANGER: repository may be corrupted")
)

// RepairHint is appended to every ErrCorruptLocalRepo message
const RepairHint = `Try running "repair" on repo`
