// Package model describes the base objects manipulated by autodataman.
//
// The package exposes a model for metadata.
//
// The object model for autodataman is composed of:
//
//	Repositories:
//	  A repository is a root collection of datasets, identified by a local path or a server base URL.
//	  Its descriptor lists the dataset names in catalog order (repo.json).
//
//	Datasets:
//	  A dataset is a named collection of versions of the same underlying data product (<dataset>/dataset.json).
//
//	Versions:
//	  A version is an immutable, named snapshot of a dataset's files.
//	  Its manifest describes the file list and provenance (<dataset>/<version>/data.json).
//
//	Files:
//	  A file descriptor carries the filename, its SHA-256 digest, a format tag and an optional
//	  post-download transform tag.
//
// Lookups over names are linear scans over ordered sequences: order is significant
// for display, and duplicates are tolerated by the format.
package model
