// Package docsource reads source documents from the local filesystem
// for ingestion.
package docsource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kbindex/kbindex/internal/domain"
)

// Reader resolves document paths against the local filesystem.
type Reader struct{}

// NewReader creates a filesystem document reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadDocument returns the full text of a document.
func (r *Reader) ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("document %s: %w", path, domain.ErrDocumentNotFound)
		}
		return "", fmt.Errorf("read document %s: %w", path, err)
	}
	return string(data), nil
}

// ListDocuments walks dir recursively and returns the paths of regular
// files matching any of the glob patterns, sorted for stable batch
// ordering. A pattern matches against the path relative to dir or
// against the file's base name.
func (r *Reader) ListDocuments(dir string, patterns []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %s: %w", dir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("directory %s: not a directory: %w", dir, domain.ErrNotFound)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if matchesAny(patterns, filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func matchesAny(patterns []string, relPath string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
