package build

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/harrison/debugbench/internal/models"
)

// Fingerprint hashes the given workspace-relative files (paths and
// contents, in sorted order) into a hex digest. Any source edit changes
// the digest.
func Fingerprint(workspace string, files []string) (string, error) {
	sorted := append([]string{}, files...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, rel := range sorted {
		io.WriteString(h, rel)
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(workspace, rel))
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", rel, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", rel, err)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stale reports whether the artifact's fingerprint no longer matches the
// current source state. Stale artifacts must be recompiled before use.
func Stale(workspace string, artifact *models.BuildArtifact) (bool, error) {
	current, err := Fingerprint(workspace, artifact.Sources)
	if err != nil {
		// A missing source counts as stale, not as a hard failure.
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return current != artifact.Fingerprint, nil
}
