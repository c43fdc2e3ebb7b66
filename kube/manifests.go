package kube

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoManifests is returned when a pattern matches no non-empty file.
var ErrNoManifests = errors.New("no manifests matched")

// MatchManifests returns the files in fsys matching the doublestar
// pattern, in lexical order.
func MatchManifests(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("kube: glob %q: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// LoadManifests reads every file in fsys matching the doublestar pattern,
// in lexical order, and joins them as one multi-document YAML stream.
func LoadManifests(fsys fs.FS, pattern string) (string, error) {
	matches, err := MatchManifests(fsys, pattern)
	if err != nil {
		return "", err
	}

	docs := make([]string, 0, len(matches))
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return "", fmt.Errorf("kube: reading %s: %w", m, err)
		}
		doc := strings.TrimSpace(string(data))
		doc = strings.TrimPrefix(doc, "---")
		doc = strings.TrimSpace(doc)
		if doc != "" {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("kube: %q: %w", pattern, ErrNoManifests)
	}
	return strings.Join(docs, "\n---\n") + "\n", nil
}
