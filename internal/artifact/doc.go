// Package artifact names, writes and archives published report artifacts.
//
// Canonical artifacts live directly in the publish root as
// YYYY-MM-DD_HH-MM_<slug>.html (UTC, minute precision) next to an optional
// <stem>.manifest.json sidecar. Superseded artifacts are moved, never copied or
// deleted, into the archive directory with their original filenames.
package artifact
