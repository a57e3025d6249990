package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestEnsureConfigSynthesizesDescriptor(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"main.cpp": "int main() { return 0; }\n",
		"heap.cpp": "void noop() {}\n",
	})

	require.NoError(t, EnsureConfig(dir))

	content, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "CXX=g++")
	assert.Contains(t, string(content), "-g -O0 -Wall -Wextra")
	assert.Contains(t, string(content), "SOURCES=heap.cpp main.cpp")
	assert.Contains(t, string(content), "TARGET="+DefaultTarget)
}

func TestEnsureConfigIsIdempotent(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{"main.cpp": "int main() {}\n"})

	require.NoError(t, EnsureConfig(dir))
	first, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	require.NoError(t, err)

	require.NoError(t, EnsureConfig(dir))
	second, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	require.NoError(t, err)

	assert.Equal(t, first, second, "descriptors must be byte-identical across calls")
}

func TestEnsureConfigNeverOverwrites(t *testing.T) {
	custom := "# hand-written\nall:\n\ttrue\n"
	dir := writeWorkspace(t, map[string]string{
		"main.cpp":     "int main() {}\n",
		DescriptorName: custom,
	})

	require.NoError(t, EnsureConfig(dir))

	content, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	require.NoError(t, err)
	assert.Equal(t, custom, string(content))
}

func TestEnsureConfigNoSources(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{"README.md": "docs\n"})
	err := EnsureConfig(dir)
	assert.ErrorIs(t, err, ErrNoSources)
}
