// Package core implements the operations on dataset repositories: synchronizing a version
// from a server into a local repository, and managing the local repository.
//
// A local repository is assumed to have a single writer: concurrent operations on the
// same local repository are not supported.
package core
