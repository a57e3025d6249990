package evaluator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// stageWorkspace copies the target workspace into a fresh temporary
// directory so concurrent evaluations of the same target never share build
// state. The cleanup func removes the copy and is safe to call more than
// once.
func stageWorkspace(source string) (string, func(), error) {
	staged, err := os.MkdirTemp("", "debugbench-run-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(staged) }

	if err := copyTree(source, staged); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to stage workspace: %w", err)
	}
	return staged, cleanup, nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
