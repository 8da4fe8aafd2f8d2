package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrepareDownloadDir checks that dir is usable as a download target and
// creates it when missing. It returns the absolute path.
func PrepareDownloadDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("download directory is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid download path: %w", err)
	}

	// Prevent writing straight into root or the home directory
	home, _ := os.UserHomeDir()
	if abs == "/" || abs == home {
		return "", fmt.Errorf("cannot use root or home directory for downloads")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, os.MkdirAll(abs, 0755)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("download path is not a directory")
	}
	return abs, nil
}

// SafeJoin resolves a suggested file name inside dir. Path components in the
// name are discarded, and the result never escapes dir.
func SafeJoin(dir, name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." || base == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	p := filepath.Join(dir, base)
	if !IsPathSafe(p, dir) {
		return "", fmt.Errorf("file name %q escapes download directory", name)
	}
	return p, nil
}

// IsPathSafe checks if a path stays within root.
func IsPathSafe(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
