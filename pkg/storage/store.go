// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"io/ioutil"
)

// Store implementations know how to read and write objects addressed by a slash-separated key.
//
// Typically this is something file system-like: a local directory tree or a static HTTP server.
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
	Delete(context.Context, string) error
}

// ReadAll fetches a whole object in memory. This is meant for small objects such as metadata documents.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	reader, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return ioutil.ReadAll(reader)
}
