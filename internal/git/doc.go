// Package git stages, commits and pushes publish results with go-git and
// verifies that the local tip matches the remote branch afterwards.
//
// All operations run in-process; no git binary is required.
package git
