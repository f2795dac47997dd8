// Copyright © 2018 One Concern

// Package metadata loads and saves repository, dataset and version descriptors.
//
// A Loader reads raw documents from a logical path on some storage backend, and
// feeds them to the decoders of the model package. Two backends are supported:
// a remote HTTP server (read-only) and a local repository tree (read-write).
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oneconcern/autodataman/pkg/core/status"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/httpfs"
	"github.com/oneconcern/autodataman/pkg/storage/localfs"
	storagestatus "github.com/oneconcern/autodataman/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Loader reads descriptors from some storage backend.
type Loader struct {
	store    storage.Store
	remote   bool
	fallback bool
	client   *http.Client
	timeout  time.Duration
	l        *zap.Logger
}

// NewRemote builds a loader for the repository served at some base URL.
//
// Whenever a descriptor is not found, the legacy ".txt" document is tried once at the same location.
func NewRemote(baseURL string, opts ...Option) (*Loader, error) {
	l := newLoader(opts, true)
	store, err := httpfs.New(baseURL, httpfs.WithClient(l.client), httpfs.WithTimeout(l.timeout))
	if err != nil {
		return nil, status.ErrRemoteFetch.Wrap(err)
	}
	l.store = store
	return l, nil
}

// NewLocal builds a loader for the local repository rooted at some path
func NewLocal(fs afero.Fs, root string, opts ...Option) *Loader {
	l := newLoader(opts, false)
	l.store = localfs.New(fs, root)
	return l
}

// New builds a loader on top of some existing local store
func New(store storage.Store, opts ...Option) *Loader {
	l := newLoader(opts, false)
	l.store = store
	return l
}

func newLoader(opts []Option, remote bool) *Loader {
	l := &Loader{
		remote:   remote,
		fallback: remote,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(l)
	}
	return l
}

// Store used by this loader
func (l *Loader) Store() storage.Store {
	return l.store
}

// IsRemote tells if this loader reads from a server
func (l *Loader) IsRemote() bool {
	return l.remote
}

func (l *Loader) String() string {
	return l.store.String()
}

// Location of a key, for display: the full URL for remote stores, the key otherwise
func (l *Loader) Location(key string) string {
	if u, ok := l.store.(interface{ URL(string) string }); ok {
		return u.URL(key)
	}
	return key
}

// Raw fetches the raw bytes of a descriptor document
func (l *Loader) Raw(ctx context.Context, key string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, l.store, key)
	if err == nil {
		l.l.Debug("loaded metadata", zap.String("location", l.Location(key)), zap.Int("size", len(data)))
		return data, nil
	}

	if l.fallback && errors.Is(err, storagestatus.ErrNotFound) {
		legacy := model.LegacyPath(key)
		l.l.Debug("metadata not found, trying legacy location", zap.String("location", l.Location(legacy)))
		data, err = storage.ReadAll(ctx, l.store, legacy)
		if err == nil {
			return data, nil
		}
	}

	return nil, l.readError(key, err)
}

func (l *Loader) readError(key string, err error) error {
	switch {
	case l.remote:
		return status.ErrRemoteFetch.Wrap(err)
	case errors.Is(err, storagestatus.ErrNotFound):
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrIO.Wrap(fmt.Errorf("reading %s: %w", key, err))
	}
}

func (l *Loader) decodeError(key string, err error) error {
	located := fmt.Errorf("%s: %w", l.Location(key), err)
	if l.remote {
		return status.ErrRemoteFetch.Wrap(located)
	}
	return located
}

// LoadRepository loads the repository descriptor
func (l *Loader) LoadRepository(ctx context.Context) (*model.Repository, error) {
	key := model.RepoDescriptorPath()
	data, err := l.Raw(ctx, key)
	if err != nil {
		return nil, err
	}
	r, err := model.DecodeRepository(data)
	if err != nil {
		return nil, l.decodeError(key, err)
	}
	return r, nil
}

// LoadDataset loads the descriptor of a dataset
func (l *Loader) LoadDataset(ctx context.Context, dataset string) (*model.Dataset, error) {
	key := model.DatasetDescriptorPath(dataset)
	data, err := l.Raw(ctx, key)
	if err != nil {
		return nil, err
	}
	d, err := model.DecodeDataset(data)
	if err != nil {
		return nil, l.decodeError(key, err)
	}
	return d, nil
}

// LoadManifest loads the manifest of a dataset version
func (l *Loader) LoadManifest(ctx context.Context, dataset, version string) (*model.Manifest, error) {
	key := model.ManifestPath(dataset, version)
	data, err := l.Raw(ctx, key)
	if err != nil {
		return nil, err
	}
	m, err := model.DecodeManifest(data)
	if err != nil {
		return nil, l.decodeError(key, err)
	}
	return m, nil
}

// Save a descriptor at some key, as a full overwrite
func (l *Loader) Save(ctx context.Context, key string, doc model.Encoder) error {
	if l.remote {
		return status.ErrIO.Wrapf("cannot write %s: remote repository is read-only", l.Location(key))
	}
	if err := l.store.Put(ctx, key, bytes.NewReader(doc.Encode())); err != nil {
		return status.ErrIO.Wrap(fmt.Errorf("writing %s: %w", key, err))
	}
	l.l.Debug("saved metadata", zap.String("location", l.Location(key)))
	return nil
}

// SaveRepository persists the repository descriptor
func (l *Loader) SaveRepository(ctx context.Context, r *model.Repository) error {
	return l.Save(ctx, model.RepoDescriptorPath(), r)
}

// SaveDataset persists a dataset descriptor
func (l *Loader) SaveDataset(ctx context.Context, dataset string, d *model.Dataset) error {
	return l.Save(ctx, model.DatasetDescriptorPath(dataset), d)
}

// SaveManifest persists a version manifest
func (l *Loader) SaveManifest(ctx context.Context, dataset, version string, m *model.Manifest) error {
	return l.Save(ctx, model.ManifestPath(dataset, version), m)
}
