// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementions.
package status

import "github.com/oneconcern/autodataman/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by storage

	// ErrNotFound indicates that the fetched object does not exist on storage
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates that the backend forbids this operation on the target resource
	ErrForbidden = errors.New("forbidden")

	// ErrNotADirectory indicates that some part of the key is not a directory
	ErrNotADirectory = errors.New("not a directory")

	// ErrInvalidKey indicates that a key cannot be resolved against the store root
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrStorageAPI indicates any other storage API error
	ErrStorageAPI = errors.New("storage API error")
)
