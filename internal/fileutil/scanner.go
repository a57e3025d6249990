package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceExtensions are the compilable translation units.
var sourceExtensions = map[string]bool{
	".c":   true,
	".cc":  true,
	".cpp": true,
	".cxx": true,
}

// headerExtensions complete the fingerprint surface: header edits must
// invalidate artifacts too.
var headerExtensions = map[string]bool{
	".h":   true,
	".hh":  true,
	".hpp": true,
}

// IsSource reports whether name has a compilable source extension.
func IsSource(name string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsHeader reports whether name has a header extension.
func IsHeader(name string) bool {
	return headerExtensions[strings.ToLower(filepath.Ext(name))]
}

// DiscoverSources walks dir and returns source files with paths relative to
// dir, sorted for deterministic output. Hidden directories and common build
// output directories are skipped.
func DiscoverSources(dir string) ([]string, error) {
	return discover(dir, IsSource)
}

// DiscoverAll returns both sources and headers, relative to dir, sorted.
// This is the file set covered by artifact fingerprints.
func DiscoverAll(dir string) ([]string, error) {
	return discover(dir, func(name string) bool {
		return IsSource(name) || IsHeader(name)
	})
}

func discover(dir string, match func(string) bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace is not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "build" || name == "obj" {
				return filepath.SkipDir
			}
			return nil
		}
		if match(d.Name()) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
