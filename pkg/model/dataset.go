package model

import (
	"fmt"
	"strings"
)

const datasetKind = "dataset"

// Dataset describes a named collection of versions (dataset.json).
type Dataset struct {
	ShortName      string   `yaml:"short_name"`
	LongName       string   `yaml:"long_name"`
	Source         string   `yaml:"source"`
	DefaultVersion string   `yaml:"default"`
	Versions       []string `yaml:"versions"`
	_              struct{}
}

type datasetDocument struct {
	Dataset struct {
		ShortName      string `json:"short_name"`
		LongName       string `json:"long_name"`
		Source         string `json:"source"`
		DefaultVersion string `json:"default"`
	} `json:"_DATASET"`
	Versions []string `json:"_VERSIONS"`
}

// NewDatasetFrom initializes a local dataset descriptor from a remote one.
//
// Descriptive fields are copied, the version list starts empty.
func NewDatasetFrom(remote *Dataset) *Dataset {
	return &Dataset{
		ShortName:      remote.ShortName,
		LongName:       remote.LongName,
		Source:         remote.Source,
		DefaultVersion: remote.DefaultVersion,
		Versions:       []string{},
	}
}

// DecodeDataset decodes a dataset.json document
func DecodeDataset(data []byte) (*Dataset, error) {
	var d Dataset
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &d, nil
}

// UnmarshalJSON decodes a dataset document, checking required keys in order
func (d *Dataset) UnmarshalJSON(data []byte) error {
	doc, err := parseDocument(data, datasetKind)
	if err != nil {
		return err
	}
	header, err := doc.object(datasetKind, "_DATASET", "_DATASET")
	if err != nil {
		return err
	}
	shortName, err := header.str(datasetKind, "short_name", "_DATASET::short_name")
	if err != nil {
		return err
	}
	longName, err := header.str(datasetKind, "long_name", "_DATASET::long_name")
	if err != nil {
		return err
	}
	source, err := header.optionalStr(datasetKind, "source", "_DATASET::source")
	if err != nil {
		return err
	}
	defaultVersion, err := header.optionalStr(datasetKind, "default", "_DATASET::default")
	if err != nil {
		return err
	}
	versions, err := doc.strings(datasetKind, "_VERSIONS", "_VERSIONS")
	if err != nil {
		return err
	}

	*d = Dataset{
		ShortName:      shortName,
		LongName:       longName,
		Source:         source,
		DefaultVersion: defaultVersion,
		Versions:       versions,
	}
	return nil
}

func (d Dataset) document() datasetDocument {
	var doc datasetDocument
	doc.Dataset.ShortName = d.ShortName
	doc.Dataset.LongName = d.LongName
	doc.Dataset.Source = d.Source
	doc.Dataset.DefaultVersion = d.DefaultVersion
	doc.Versions = nonNil(d.Versions)
	return doc
}

// MarshalJSON renders the dataset in the wire format
func (d Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.document())
}

// Encode yields the canonical dataset.json document
func (d *Dataset) Encode() []byte {
	return encode(d.document())
}

// FindVersion returns the position of the first version with this name, or NotFound
func (d *Dataset) FindVersion(name string) int {
	return find(d.Versions, name)
}

// HasVersion tells if a version is listed
func (d *Dataset) HasVersion(name string) bool {
	return d.FindVersion(name) != NotFound
}

// AddVersion appends a version name. Duplicates are not checked.
func (d *Dataset) AddVersion(name string) {
	d.Versions = append(d.Versions, name)
}

// RemoveVersion removes the first occurrence of a version name. It is a no-op if the name is absent.
func (d *Dataset) RemoveVersion(name string) {
	d.Versions = remove(d.Versions, name)
}

// NumVersions in the dataset
func (d *Dataset) NumVersions() int {
	return len(d.Versions)
}

// Equal compares two dataset descriptors field by field
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.ShortName == other.ShortName &&
		d.LongName == other.LongName &&
		d.Source == other.Source &&
		d.DefaultVersion == other.DefaultVersion &&
		equalStrings(d.Versions, other.Versions)
}

// Summary renders a human-readable description of the dataset
func (d *Dataset) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Short name:      %s\n", d.ShortName)
	fmt.Fprintf(&b, "Long name:       %s\n", d.LongName)
	if d.Source != "" {
		fmt.Fprintf(&b, "Source:          %s\n", d.Source)
	}
	fmt.Fprintf(&b, "Default version: %s\n", d.DefaultVersion)
	fmt.Fprintf(&b, "Versions:        %s\n", strings.Join(d.Versions, ", "))
	return b.String()
}
