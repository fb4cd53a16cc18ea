// Package pathutil provides path helpers for output and configuration files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath reduces a full path to .../<parent>/<basename> for compact error messages.
// For example, "/home/user/.facsexne/config.yaml" becomes ".../.facsexne/config.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// EnsureDir expands and cleans dir, creates it if needed and checks that it
// is a directory. It returns the cleaned path.
func EnsureDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if strings.ContainsRune(dir, '\x00') {
		return "", fmt.Errorf("invalid directory: path contains null byte")
	}

	expanded, err := ExpandHome(dir)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(expanded)

	if err := os.MkdirAll(cleaned, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", cleaned, err)
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to stat directory %s: %w", cleaned, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", cleaned)
	}

	return cleaned, nil
}
