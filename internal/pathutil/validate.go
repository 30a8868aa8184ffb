// Package pathutil confines caller-supplied output paths to allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathRejected is returned when a path is empty, malformed, or resolves
// outside every allowed directory.
var ErrPathRejected = errors.New("path rejected")

// RedactPath shortens a path to .../<parent>/<basename> for error messages.
// "/home/user/.tipgen/datasets/run.csv" becomes ".../datasets/run.csv".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// ResolveOutputPath returns the absolute, symlink-resolved form of path if it
// lies inside one of allowedDirs. The file and any of its parent directories
// may not exist yet.
func ResolveOutputPath(path string, allowedDirs []string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is empty", ErrPathRejected)
	}
	if len(allowedDirs) == 0 {
		return "", fmt.Errorf("%w: no allowed directories configured", ErrPathRejected)
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("%w: path contains null byte", ErrPathRejected)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve absolute path: %v", ErrPathRejected, err)
	}

	// Resolve the parent so a symlinked directory cannot point outside.
	resolvedDir, err := resolveExisting(filepath.Dir(absPath))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathRejected, err)
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(absPath))

	for _, dir := range allowedDirs {
		base, err := filepath.Abs(filepath.Clean(dir))
		if err != nil {
			continue
		}
		base, err = resolveExisting(base)
		if err != nil {
			continue
		}
		if isSubpath(resolved, base) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%w: %q is outside allowed directories", ErrPathRejected, RedactPath(absPath))
}

// ValidatePath reports whether path lies inside one of allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	_, err := ResolveOutputPath(path, allowedDirs)
	return err
}

// AllowedOutputDirs lists the directories generated files may be written to:
// the data directory and the working directory. Empty entries are skipped.
func AllowedOutputDirs(dataDir, workDir string) []string {
	var dirs []string
	for _, d := range []string{dataDir, workDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of dir
// and re-appends the missing tail.
func resolveExisting(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path equals base or sits below it.
// "/tmp/foo" does not contain "/tmp/foobar".
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
