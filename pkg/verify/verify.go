// Copyright © 2018 One Concern

// Package verify computes and checks content digests of downloaded files.
package verify

import (
	"crypto/md5"  // #nosec
	"crypto/sha1" // #nosec
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	units "github.com/docker/go-units"
	sha256 "github.com/minio/sha256-simd"
	"github.com/spf13/afero"
)

// ChunkSize is the size of the buffer used when streaming a file through the hash
const ChunkSize = 128 * units.KiB

// HashFunc builds a new hash
type HashFunc func() hash.Hash

var hashes = map[string]HashFunc{
	"sha256": sha256.New,
	"sha512": sha512.New,
	"sha1":   sha1.New,
	"md5":    md5.New,
}

// Lookup a hash function by name (sha256, sha512, sha1, md5)
func Lookup(name string) (HashFunc, error) {
	h, ok := hashes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported hash type %q", name)
	}
	return h, nil
}

// Digest computes the lowercase hex SHA-256 digest of a file
func Digest(fs afero.Fs, pth string) (string, error) {
	return DigestWith(fs, pth, sha256.New)
}

// DigestWith computes the lowercase hex digest of a file, with some hash function
func DigestWith(fs afero.Fs, pth string, newHash HashFunc) (string, error) {
	file, err := fs.Open(pth)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	h := newHash()
	buf := make([]byte, ChunkSize)
	if _, err = io.CopyBuffer(h, file, buf); err != nil {
		return "", fmt.Errorf("computing digest of %s: %w", pth, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify tells if the SHA-256 digest of a file matches the expected hex digest
func Verify(fs afero.Fs, pth, expected string) (bool, error) {
	actual, err := Digest(fs, pth)
	if err != nil {
		return false, err
	}
	return Match(actual, expected), nil
}

// Match compares hex digests, ignoring case
func Match(actual, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(actual), strings.TrimSpace(expected))
}

// HashingWriter hashes content while it is written to some underlying writer
type HashingWriter struct {
	w       io.Writer
	h       hash.Hash
	written int64
}

// NewHashingWriter wraps a writer with a SHA-256 hash
func NewHashingWriter(w io.Writer) *HashingWriter {
	return &HashingWriter{
		w: w,
		h: sha256.New(),
	}
}

func (hw *HashingWriter) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	_, _ = hw.h.Write(p[:n])
	hw.written += int64(n)
	return n, err
}

// Digest of all bytes written so far, as lowercase hex
func (hw *HashingWriter) Digest() string {
	return hex.EncodeToString(hw.h.Sum(nil))
}

// Written yields the number of bytes written so far
func (hw *HashingWriter) Written() int64 {
	return hw.written
}
