package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a relative asset path escapes its root.
var ErrOutsideRoot = errors.New("path escapes asset root")

func EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// ParentDir returns the directory part of path, or "" for a bare file name.
func ParentDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}

// ResolveUnder locates rel inside root. Relative paths are joined onto
// root; absolute paths are accepted as is. Either way the result must land
// inside root.
func ResolveUnder(root, rel string) (string, error) {
	if rel == "" {
		return "", ErrOutsideRoot
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	full := filepath.Clean(filepath.FromSlash(rel))
	if !filepath.IsAbs(full) {
		full = filepath.Join(absRoot, full)
	}
	prefix := absRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(full, prefix) {
		return "", ErrOutsideRoot
	}
	return full, nil
}
