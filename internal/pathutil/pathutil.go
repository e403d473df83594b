// Package pathutil provides local path resolution shared by the
// configuration layer and the cluster dialer.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser replaces a leading ~ with the current user's home directory.
// Paths without a tilde are returned unchanged.
func ExpandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Resolve expands a leading tilde and converts the result to an absolute
// path. Relative paths resolve against the working directory.
func Resolve(path string) (string, error) {
	expanded, err := ExpandUser(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
