package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Home returns the scorecard home directory, creating it if needed.
// SCORECARD_HOME wins when set; otherwise .scorecard under the working
// directory is used.
func Home() (string, error) {
	home := os.Getenv("SCORECARD_HOME")
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".scorecard")
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create scorecard home directory: %w", err)
	}
	return home, nil
}

// LockDir returns the directory holding per-run dispatch locks.
func LockDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, "locks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create lock directory: %w", err)
	}
	return dir, nil
}
