package model

import (
	"fmt"
)

const (
	// RepoType is the protocol tag every repository descriptor carries
	RepoType = "autodataman"

	// RepoVersion is the descriptor version emitted for new repositories
	RepoVersion = "1"

	// NotFound is the index returned by lookups when a name is absent
	NotFound = -1
)

const repoKind = "repository"

// Repository describes the catalog of datasets held by a local repo or a server (repo.json).
type Repository struct {
	Version  string   `yaml:"version"`
	Datasets []string `yaml:"datasets"`
	_        struct{}
}

type repoDocument struct {
	Repo struct {
		Type    string `json:"type"`
		Version string `json:"version"`
	} `json:"_REPO"`
	Datasets []string `json:"_DATASETS"`
}

// NewRepository builds an empty repository descriptor
func NewRepository() *Repository {
	return &Repository{
		Version:  RepoVersion,
		Datasets: []string{},
	}
}

// DecodeRepository decodes a repo.json document
func DecodeRepository(data []byte) (*Repository, error) {
	var r Repository
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &r, nil
}

// UnmarshalJSON decodes a repository document, checking required keys in order
func (r *Repository) UnmarshalJSON(data []byte) error {
	doc, err := parseDocument(data, repoKind)
	if err != nil {
		return err
	}
	header, err := doc.object(repoKind, "_REPO", "_REPO")
	if err != nil {
		return err
	}
	tag, err := header.str(repoKind, "type", "_REPO::type")
	if err != nil {
		return err
	}
	if tag != RepoType {
		return malformed(repoKind, "invalid \"_REPO::type\" value %q", tag)
	}
	version, err := header.str(repoKind, "version", "_REPO::version")
	if err != nil {
		return err
	}
	datasets, err := doc.strings(repoKind, "_DATASETS", "_DATASETS")
	if err != nil {
		return err
	}

	*r = Repository{
		Version:  version,
		Datasets: datasets,
	}
	return nil
}

func (r Repository) document() repoDocument {
	var doc repoDocument
	doc.Repo.Type = RepoType
	doc.Repo.Version = r.Version
	if doc.Repo.Version == "" {
		doc.Repo.Version = RepoVersion
	}
	doc.Datasets = nonNil(r.Datasets)
	return doc
}

// MarshalJSON renders the repository in the wire format
func (r Repository) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.document())
}

// Encode yields the canonical repo.json document
func (r *Repository) Encode() []byte {
	return encode(r.document())
}

// FindDataset returns the position of the first dataset with this name, or NotFound
func (r *Repository) FindDataset(name string) int {
	return find(r.Datasets, name)
}

// HasDataset tells if a dataset is listed
func (r *Repository) HasDataset(name string) bool {
	return r.FindDataset(name) != NotFound
}

// AddDataset appends a dataset name to the catalog
func (r *Repository) AddDataset(name string) {
	r.Datasets = append(r.Datasets, name)
}

// RemoveDataset removes the first occurrence of a dataset name. It is a no-op if the name is absent.
func (r *Repository) RemoveDataset(name string) {
	r.Datasets = remove(r.Datasets, name)
}

// NumDatasets in the catalog
func (r *Repository) NumDatasets() int {
	return len(r.Datasets)
}

func (r *Repository) String() string {
	return fmt.Sprintf("%s repository v%s (%d dataset(s))", RepoType, r.Version, len(r.Datasets))
}
