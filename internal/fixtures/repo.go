// Package fixtures generates repository trees on some file system, for tests.
package fixtures

import (
	"encoding/hex"
	"os"
	"path"
	"strings"

	sha256 "github.com/minio/sha256-simd"
	"github.com/oneconcern/autodataman/internal/rand"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/spf13/afero"
)

// File in a version fixture.
//
// When Digest is empty, the digest of Content is declared in the manifest.
type File struct {
	Name       string
	Format     string
	OnDownload string
	Content    []byte
	Digest     string
}

// Version fixture
type Version struct {
	Name   string
	Date   string
	Source string
	Files  []File
}

// Dataset fixture
type Dataset struct {
	Name           string
	LongName       string
	Source         string
	DefaultVersion string
	Versions       []Version
}

// Digest of some content, as lowercase hex SHA-256
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RandomFile builds a file fixture with random content
func RandomFile(name, format string, size int) File {
	return File{
		Name:    name,
		Format:  format,
		Content: rand.LetterBytes(size),
	}
}

// Manifest describes a version fixture
func (v Version) Manifest() *model.Manifest {
	m := &model.Manifest{
		Version: v.Name,
		Date:    v.Date,
		Source:  v.Source,
		Files:   make([]model.File, 0, len(v.Files)),
	}
	for _, f := range v.Files {
		digest := f.Digest
		if digest == "" {
			digest = Digest(f.Content)
		}
		m.Files = append(m.Files, model.File{
			Filename:   f.Name,
			Digest:     digest,
			Format:     f.Format,
			OnDownload: f.OnDownload,
		})
	}
	return m
}

// Descriptor of a dataset fixture
func (d Dataset) Descriptor() *model.Dataset {
	ds := &model.Dataset{
		ShortName:      d.Name,
		LongName:       d.LongName,
		Source:         d.Source,
		DefaultVersion: d.DefaultVersion,
		Versions:       make([]string, 0, len(d.Versions)),
	}
	for _, v := range d.Versions {
		ds.Versions = append(ds.Versions, v.Name)
	}
	return ds
}

// WriteRepo writes a complete repository tree rooted at root: descriptors and data files
func WriteRepo(fs afero.Fs, root string, datasets ...Dataset) error {
	if err := fs.MkdirAll(root, 0755); err != nil {
		return err
	}
	repo := model.NewRepository()
	for _, d := range datasets {
		repo.AddDataset(d.Name)
		if err := WriteDataset(fs, root, d); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, path.Join(root, model.RepoDescriptorPath()), repo.Encode(), 0644)
}

// WriteDataset writes the tree of a dataset, without touching the repository descriptor
func WriteDataset(fs afero.Fs, root string, d Dataset) error {
	if err := fs.MkdirAll(path.Join(root, d.Name), 0755); err != nil {
		return err
	}
	for _, v := range d.Versions {
		if err := WriteVersion(fs, root, d.Name, v); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, path.Join(root, model.DatasetDescriptorPath(d.Name)), d.Descriptor().Encode(), 0644)
}

// WriteVersion writes the manifest and data files of a version
func WriteVersion(fs afero.Fs, root, dataset string, v Version) error {
	if err := fs.MkdirAll(path.Join(root, model.VersionDir(dataset, v.Name)), 0755); err != nil {
		return err
	}
	for _, f := range v.Files {
		if err := afero.WriteFile(fs, path.Join(root, model.DataFilePath(dataset, v.Name, f.Name)), f.Content, 0644); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, path.Join(root, model.ManifestPath(dataset, v.Name)), v.Manifest().Encode(), 0644)
}

// Snapshot reads all files under root, keyed by their path relative to root
func Snapshot(fs afero.Fs, root string) (map[string]string, error) {
	snap := make(map[string]string)
	err := afero.Walk(fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			snap[strings.TrimPrefix(pth, root)+"/"] = ""
			return nil
		}
		content, err := afero.ReadFile(fs, pth)
		if err != nil {
			return err
		}
		snap[strings.TrimPrefix(pth, root)] = string(content)
		return nil
	})
	return snap, err
}
