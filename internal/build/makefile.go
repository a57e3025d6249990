// Package build compiles debugging targets with debug symbols and turns
// compiler failures into structured diagnostics.
//
// The subsystem is stateless across calls: there is no implicit artifact
// caching, and callers detect stale binaries by re-checking the artifact
// fingerprint against the workspace.
package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/harrison/debugbench/internal/fileutil"
)

// DescriptorName is the build descriptor file synthesized when absent.
const DescriptorName = "Makefile"

// DefaultTarget is the binary name the synthesized descriptor produces.
const DefaultTarget = "program"

// DebugFlags are the compiler flags for debug builds: symbols on,
// optimization off, full warnings.
var DebugFlags = []string{"-std=c++17", "-g", "-O0", "-Wall", "-Wextra", "-pthread"}

// ErrNoSources indicates a workspace with nothing to compile.
var ErrNoSources = errors.New("no source files found in workspace")

// EnsureConfig synthesizes a minimal build descriptor targeting all
// discovered sources with debug flags. It is idempotent: repeated calls
// produce byte-identical descriptors, and an existing descriptor is never
// overwritten. Synthesis is flock-guarded so concurrent evaluations sharing
// a workspace cannot interleave partial writes.
func EnsureConfig(workspace string) error {
	descriptor := filepath.Join(workspace, DescriptorName)
	if _, err := os.Stat(descriptor); err == nil {
		return nil
	}

	sources, err := fileutil.DiscoverSources(workspace)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSources, workspace)
	}

	lock := flock.New(descriptor + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock build descriptor: %w", err)
	}
	defer lock.Unlock()

	// Re-check under the lock: another evaluation may have won the race.
	if _, err := os.Stat(descriptor); err == nil {
		return nil
	}

	return atomicWrite(descriptor, []byte(renderMakefile(sources)))
}

// renderMakefile produces a deterministic Makefile covering all sources.
func renderMakefile(sources []string) string {
	sorted := append([]string{}, sources...)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("# Generated build descriptor for debug builds\n")
	sb.WriteString("CXX=g++\n")
	fmt.Fprintf(&sb, "CXXFLAGS=%s\n", strings.Join(DebugFlags, " "))
	fmt.Fprintf(&sb, "TARGET=%s\n", DefaultTarget)
	fmt.Fprintf(&sb, "SOURCES=%s\n", strings.Join(sorted, " "))
	sb.WriteString("\n$(TARGET): $(SOURCES)\n")
	sb.WriteString("\t$(CXX) $(CXXFLAGS) -o $(TARGET) $(SOURCES)\n")
	sb.WriteString("\nclean:\n")
	sb.WriteString("\trm -f $(TARGET)\n")
	sb.WriteString("\n.PHONY: clean\n")
	return sb.String()
}

// atomicWrite writes data via a temp file and rename so readers never see
// a partial descriptor.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-descriptor-*")
	if err != nil {
		return fmt.Errorf("failed to create temp descriptor: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close descriptor: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set descriptor permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename descriptor into place: %w", err)
	}
	tmp = nil
	return nil
}
