// Package filter provides glob, path and search-term filtering shared by
// 'stage add' and 'documents list'.
package filter

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/docassist/docassist/internal/models"
)

// Config holds filter configuration.
type Config struct {
	Include []string // name globs; empty includes all
	Exclude []string // name globs; wins over Include
	Search  []string // case-insensitive substrings, all must match

	// PathInclude globs match the relative path, e.g. "Reports/**" or
	// "**/q1.pdf".
	PathInclude []string
}

// Empty reports whether the configuration filters nothing.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 && len(c.PathInclude) == 0
}

// Match reports whether a file with the given name and relative path
// passes the configuration.
func (c Config) Match(name, relativePath string) bool {
	if c.Empty() {
		return true
	}
	if len(c.PathInclude) > 0 {
		if relativePath == "" {
			relativePath = name
		}
		if !matchesPathFilter(relativePath, c.PathInclude) {
			return false
		}
	}
	return matchesFilter(name, c)
}

// ApplyToEntries filters staged entries by filename and relative path.
func ApplyToEntries(entries []models.FileEntry, config Config) []models.FileEntry {
	if config.Empty() {
		return entries
	}
	filtered := make([]models.FileEntry, 0, len(entries))
	for _, e := range entries {
		if config.Match(e.Filename, e.RelativePath) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// ApplyToDocuments filters uploaded documents by name.
func ApplyToDocuments(docs []models.Document, config Config) []models.Document {
	if config.Empty() {
		return docs
	}
	filtered := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if config.Match(d.Name, d.Name) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func matchesFilter(filename string, config Config) bool {
	base := path.Base(filepath.ToSlash(filename))
	for _, pattern := range config.Exclude {
		if globName(pattern, filename, base) {
			return false
		}
	}

	if len(config.Include) > 0 {
		included := false
		for _, pattern := range config.Include {
			if globName(pattern, filename, base) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	lower := strings.ToLower(filename)
	for _, term := range config.Search {
		if !strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func globName(pattern, name, base string) bool {
	if ok, _ := filepath.Match(pattern, name); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, base)
	return ok
}

// matchesPathFilter reports whether filePath matches any pattern. A "**"
// segment matches zero or more directories.
func matchesPathFilter(filePath string, patterns []string) bool {
	segments := strings.Split(filepath.ToSlash(filePath), "/")
	for _, pattern := range patterns {
		if matchSegments(strings.Split(filepath.ToSlash(pattern), "/"), segments) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segments); i++ {
			if matchSegments(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segments[0])
	return err == nil && ok && matchSegments(pattern[1:], segments[1:])
}

// ParsePatternList splits "*.pdf, *.xlsx" into its patterns.
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
