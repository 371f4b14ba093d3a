// Package fsutil resolves the filesystem paths found in procsup configuration.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory. Other paths,
// including "~user" forms, are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// PathExists reports whether path exists. Errors other than not-exist (for
// example permission denied) count as existing.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// Missing returns the non-empty paths that do not exist, in input order.
func Missing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if p != "" && !PathExists(p) {
			out = append(out, p)
		}
	}
	return out
}
