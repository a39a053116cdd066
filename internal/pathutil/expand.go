package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and a leading "~" in path.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded != "~" && !strings.HasPrefix(expanded, "~/") {
		return filepath.Clean(expanded), nil
	}

	home, err := HomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(expanded, "~"), "/")), nil
}

// EnsureDir expands path and creates it with 0700 permissions if missing.
func EnsureDir(path string) (string, error) {
	dir, err := Expand(path)
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", fmt.Errorf("directory path is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return dir, nil
}

// HomeDir returns a fully resolved home directory, trying os, os/user and $HOME in turn.
func HomeDir() (string, error) {
	candidates := []func() string{
		func() string { h, _ := os.UserHomeDir(); return h },
		func() string {
			if u, err := user.Current(); err == nil {
				return u.HomeDir
			}
			return ""
		},
		func() string { return os.Getenv("HOME") },
	}
	for _, candidate := range candidates {
		if home := strings.TrimSpace(candidate()); resolved(home) {
			return home, nil
		}
	}
	return "", fmt.Errorf("home directory is not set or not fully resolved")
}

func resolved(home string) bool {
	return home != "" && home != "~" && !strings.HasPrefix(home, "~/")
}
