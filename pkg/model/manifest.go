package model

import (
	"fmt"
	"strings"
)

const (
	manifestKind = "data"
	fileKind     = "file"
)

// Manifest describes the content and provenance of a dataset version (data.json).
type Manifest struct {
	Version string `yaml:"version"`
	Date    string `yaml:"date"`
	Source  string `yaml:"source"`
	Files   []File `yaml:"files"`
	_       struct{}
}

// File describes a single content-addressed file within a version
type File struct {
	Filename   string `yaml:"filename"`
	Digest     string `yaml:"sha256sum"`
	Format     string `yaml:"format"`
	OnDownload string `yaml:"on_download"`
	_          struct{}
}

type manifestDocument struct {
	Data struct {
		Version string `json:"version"`
		Date    string `json:"date"`
		Source  string `json:"source"`
	} `json:"_DATA"`
	Files []fileDocument `json:"_FILES"`
}

type fileDocument struct {
	Filename   string `json:"filename"`
	Digest     string `json:"SHA256sum"`
	Format     string `json:"format"`
	OnDownload string `json:"on_download"`
}

// DecodeManifest decodes a data.json document
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &m, nil
}

// UnmarshalJSON decodes a version manifest, checking required keys in order
func (m *Manifest) UnmarshalJSON(data []byte) error {
	doc, err := parseDocument(data, manifestKind)
	if err != nil {
		return err
	}
	header, err := doc.object(manifestKind, "_DATA", "_DATA")
	if err != nil {
		return err
	}
	version, err := header.str(manifestKind, "version", "_DATA::version")
	if err != nil {
		return err
	}
	date, err := header.str(manifestKind, "date", "_DATA::date")
	if err != nil {
		return err
	}
	source, err := header.str(manifestKind, "source", "_DATA::source")
	if err != nil {
		return err
	}
	entries, err := doc.objects(manifestKind, "_FILES", "_FILES")
	if err != nil {
		return err
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		f, err := decodeFile(entry)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	*m = Manifest{
		Version: version,
		Date:    date,
		Source:  source,
		Files:   files,
	}
	return nil
}

// DecodeFile decodes a single file descriptor
func DecodeFile(data []byte) (*File, error) {
	var f File
	if err := f.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &f, nil
}

// UnmarshalJSON decodes a file descriptor, checking required keys in order
func (f *File) UnmarshalJSON(data []byte) error {
	doc, err := parseDocument(data, fileKind)
	if err != nil {
		return err
	}
	decoded, err := decodeFile(doc)
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

func decodeFile(doc document) (File, error) {
	filename, err := doc.str(fileKind, "filename", "filename")
	if err != nil {
		return File{}, err
	}
	digest, err := doc.str(fileKind, "SHA256sum", "SHA256sum")
	if err != nil {
		return File{}, err
	}
	format, err := doc.str(fileKind, "format", "format")
	if err != nil {
		return File{}, err
	}
	onDownload, err := doc.optionalStr(fileKind, "on_download", "on_download")
	if err != nil {
		return File{}, err
	}
	return File{
		Filename:   filename,
		Digest:     digest,
		Format:     format,
		OnDownload: onDownload,
	}, nil
}

func (m Manifest) document() manifestDocument {
	var doc manifestDocument
	doc.Data.Version = m.Version
	doc.Data.Date = m.Date
	doc.Data.Source = m.Source
	doc.Files = make([]fileDocument, 0, len(m.Files))
	for _, f := range m.Files {
		doc.Files = append(doc.Files, f.document())
	}
	return doc
}

func (f File) document() fileDocument {
	return fileDocument{
		Filename:   f.Filename,
		Digest:     f.Digest,
		Format:     f.Format,
		OnDownload: f.OnDownload,
	}
}

// MarshalJSON renders the manifest in the wire format
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.document())
}

// MarshalJSON renders a file descriptor in the wire format
func (f File) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.document())
}

// Encode yields the canonical data.json document
func (m *Manifest) Encode() []byte {
	return encode(m.document())
}

// Encode yields the canonical document for a single file descriptor
func (f *File) Encode() []byte {
	return encode(f.document())
}

// FindFile returns the position of the first file with this name, or NotFound
func (m *Manifest) FindFile(filename string) int {
	for i, f := range m.Files {
		if f.Filename == filename {
			return i
		}
	}
	return NotFound
}

// Equal compares two file descriptors on all their fields
func (f File) Equal(other File) bool {
	return f.Filename == other.Filename &&
		f.Digest == other.Digest &&
		f.Format == other.Format &&
		f.OnDownload == other.OnDownload
}

// Equal compares two manifests field by field. File order is significant.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Version != other.Version || m.Date != other.Date || m.Source != other.Source {
		return false
	}
	if len(m.Files) != len(other.Files) {
		return false
	}
	for i := range m.Files {
		if !m.Files[i].Equal(other.Files[i]) {
			return false
		}
	}
	return true
}

// Summary renders a human-readable description of the manifest
func (m *Manifest) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Date:    %s\n", m.Date)
	fmt.Fprintf(&b, "Source:  %s\n", m.Source)
	fmt.Fprintf(&b, "Files:   %d\n", len(m.Files))
	for _, f := range m.Files {
		fmt.Fprintf(&b, "  %s [%s] %s", f.Filename, f.Format, f.Digest)
		if f.OnDownload != "" {
			fmt.Fprintf(&b, " (on download: %s)", f.OnDownload)
		}
		b.WriteString("\n")
	}
	return b.String()
}
