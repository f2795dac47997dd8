// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - local file system (read-write, see localfs)
//   - static HTTP server (read-only, see httpfs)
package storage
