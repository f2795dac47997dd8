// Package samples downloads sample data files described by a hash list.
//
// A hash list is a text file: its first line is the base URL of the files, and each following
// line holds the hex digest and the relative path of a file, separated by blanks.
//
//	https://example.com/sample_data
//	3f06b4ba... clt.nc
//	92b1d58c... obs/tas.nc
package samples

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/oneconcern/autodataman/pkg/errors"
	"github.com/oneconcern/autodataman/pkg/storage"
	"github.com/oneconcern/autodataman/pkg/storage/httpfs"
	"github.com/oneconcern/autodataman/pkg/verify"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// MaxAttempts is the number of downloads tried for a file before giving up
const MaxAttempts = 3

var (
	// ErrInvalidList indicates a malformed hash list
	ErrInvalidList = errors.New("invalid hash list")

	// ErrIncomplete indicates that some files could not be downloaded with a matching digest
	ErrIncomplete = errors.New("some sample files could not be downloaded")
)

// Entry of a hash list
type Entry struct {
	Digest string
	Name   string
}

// List of sample files
type List struct {
	BaseURL string
	Entries []Entry
}

// ParseList reads a hash list
func ParseList(r io.Reader) (*List, error) {
	scanner := bufio.NewScanner(r)
	list := &List{}
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if line == 1 {
			if text == "" {
				return nil, ErrInvalidList.Wrapf("line 1: missing base URL")
			}
			list.BaseURL = text
			continue
		}
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, ErrInvalidList.Wrapf("line %d: expected a digest and a file name, got %q", line, text)
		}
		if err := validName(fields[1]); err != nil {
			return nil, ErrInvalidList.Wrapf("line %d: %v", line, err)
		}
		list.Entries = append(list.Entries, Entry{Digest: fields[0], Name: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, ErrInvalidList.Wrap(err)
	}
	if line == 0 {
		return nil, ErrInvalidList.Wrapf("empty list")
	}
	return list, nil
}

// LoadList reads a hash list from a file
func LoadList(fs afero.Fs, pth string) (*List, error) {
	fi, err := fs.Stat(pth)
	if err != nil {
		return nil, ErrInvalidList.Wrap(err)
	}
	if fi.IsDir() {
		return nil, ErrInvalidList.Wrapf("%s is a directory", pth)
	}
	file, err := fs.Open(pth)
	if err != nil {
		return nil, ErrInvalidList.Wrap(err)
	}
	defer file.Close()
	return ParseList(file)
}

func validName(name string) error {
	cleaned := path.Clean(name)
	if path.IsAbs(name) || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(name, `\`) {
		return fmt.Errorf("unsafe file name %q", name)
	}
	return nil
}

// Report on downloaded samples
type Report struct {
	Downloaded []string
	Skipped    []string
	Failed     []string
}

// Option for the sample downloader
type Option func(*downloader)

// WithHash sets the hash function used by the list. It defaults to sha256.
func WithHash(hash verify.HashFunc) Option {
	return func(d *downloader) {
		d.hash = hash
	}
}

// WithFs sets the file system of the destination directory
func WithFs(fs afero.Fs) Option {
	return func(d *downloader) {
		d.fs = fs
	}
}

// WithStore sets the store serving the files, instead of the base URL of the list
func WithStore(store storage.Store) Option {
	return func(d *downloader) {
		d.store = store
	}
}

// WithHTTPOptions sets options for the HTTP store serving the files
func WithHTTPOptions(opts ...httpfs.Option) Option {
	return func(d *downloader) {
		d.httpOpts = append(d.httpOpts, opts...)
	}
}

// WithLogger sets a logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *downloader) {
		if logger != nil {
			d.l = logger
		}
	}
}

type downloader struct {
	fs       afero.Fs
	store    storage.Store
	httpOpts []httpfs.Option
	hash     verify.HashFunc
	l        *zap.Logger
}

// Download the files of a list into some destination directory.
//
// A file already present with a matching digest is not downloaded again. A download
// with a mismatching digest is retried, up to MaxAttempts times.
func Download(ctx context.Context, list *List, dest string, opts ...Option) (*Report, error) {
	d := &downloader{
		fs: afero.NewOsFs(),
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(d)
	}
	if d.hash == nil {
		d.hash, _ = verify.Lookup("sha256")
	}
	if d.store == nil {
		store, err := httpfs.New(list.BaseURL, d.httpOpts...)
		if err != nil {
			return nil, ErrInvalidList.Wrap(err)
		}
		d.store = store
	}

	report := &Report{}
	for _, entry := range list.Entries {
		target := filepath.Join(dest, filepath.FromSlash(entry.Name))
		if err := d.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return report, err
		}

		ok, downloaded := d.fetch(ctx, entry, target)
		switch {
		case !ok:
			report.Failed = append(report.Failed, entry.Name)
		case downloaded:
			report.Downloaded = append(report.Downloaded, entry.Name)
		default:
			report.Skipped = append(report.Skipped, entry.Name)
		}
	}
	if len(report.Failed) > 0 {
		return report, ErrIncomplete.Wrapf("%s", strings.Join(report.Failed, ", "))
	}
	return report, nil
}

// fetch tells if the file ends up with a good digest, and if it had to be downloaded
func (d *downloader) fetch(ctx context.Context, entry Entry, target string) (bool, bool) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if digest, err := verify.DigestWith(d.fs, target, d.hash); err == nil && verify.Match(digest, entry.Digest) {
			return true, attempt > 1
		}

		d.l.Info("downloading sample file",
			zap.String("file", entry.Name),
			zap.String("destination", target),
			zap.Int("attempt", attempt),
		)
		written, digest, err := d.download(ctx, entry.Name, target)
		if err != nil {
			d.l.Warn("download failed", zap.String("file", entry.Name), zap.Error(err))
			continue
		}
		if verify.Match(digest, entry.Digest) {
			d.l.Info("downloaded sample file", zap.String("file", entry.Name), zap.String("size", units.HumanSize(float64(written))))
			return true, true
		}
		d.l.Warn("digest mismatch", zap.String("file", entry.Name), zap.String("expected", entry.Digest), zap.String("actual", digest))
	}
	return false, true
}

func (d *downloader) download(ctx context.Context, name, target string) (int64, string, error) {
	reader, err := d.store.Get(ctx, name)
	if err != nil {
		return 0, "", err
	}
	defer reader.Close()

	file, err := d.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, "", err
	}
	h := d.hash()
	written, err := io.CopyBuffer(io.MultiWriter(file, h), reader, make([]byte, verify.ChunkSize))
	if err != nil {
		_ = file.Close()
		return 0, "", err
	}
	if err = file.Close(); err != nil {
		return 0, "", err
	}
	return written, fmt.Sprintf("%x", h.Sum(nil)), nil
}
