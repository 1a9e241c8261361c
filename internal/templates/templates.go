// Package templates provides notebook template discovery, indexing and lookup.
package templates

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Extension is the file extension of notebook documents.
const Extension = ".ipynb"

// CheckpointDir is the directory name used by notebook servers for autosave
// checkpoints. Its contents are never indexed.
const CheckpointDir = ".ipynb_checkpoints"

var (
	// ErrTemplateNotFound is returned when a key is empty or not indexed.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidEncoding is returned when a template file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("template is not valid UTF-8")
)

// Record is a single rendered template.
type Record struct {
	Path     string `json:"path"`
	Dirname  string `json:"dirname"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Username string `json:"username"`
}

// Key returns the index key for the record.
func (r *Record) Key() string {
	return recordKey(r.Dirname, r.Filename)
}

func recordKey(dirname, filename string) string {
	if dirname == "" {
		return filename
	}
	return dirname + "/" + filename
}

// Root is a directory tree searched for templates.
type Root struct {
	// Path is the absolute directory on disk, or BuiltinSource for the
	// bundled templates.
	Path string

	fsys fs.FS
}

// DirRoot returns a root backed by a directory on disk.
func DirRoot(path string) Root {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Root{Path: path, fsys: os.DirFS(path)}
}

// FSRoot returns a root backed by an arbitrary filesystem. path is used for
// display and for Record.Path.
func FSRoot(path string, fsys fs.FS) Root {
	return Root{Path: path, fsys: fsys}
}

// DirRoots wraps each directory with DirRoot, preserving order.
func DirRoots(paths []string) []Root {
	roots := make([]Root, 0, len(paths))
	for _, path := range paths {
		roots = append(roots, DirRoot(path))
	}
	return roots
}
